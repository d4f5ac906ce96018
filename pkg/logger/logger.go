// Copyright 2019 Copyright (c) 2019 SAP SE or an SAP affiliate company. All rights reserved. This file is licensed under the Apache Software License, v. 2 except as noted otherwise in the LICENSE file.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config configures the zap backend of the logger.
type Config struct {
	// Development enables console encoding, stacktraces and the caller.
	Development bool
	// Verbosity is the max V level that is logged.
	Verbosity         int
	DisableStacktrace bool
	DisableCaller     bool
	// Format overwrites the encoding of the mode. One of "json" or "console".
	Format string
	// OutputPaths defaults to stderr.
	OutputPaths []string
}

var configFromFlags = Config{}

// New creates a logger with the given configuration.
// The configuration of the command line flags is used if config is nil.
func New(config *Config) (logr.Logger, error) {
	if config == nil {
		config = &configFromFlags
	}
	zapCfg, err := zapConfig(*config)
	if err != nil {
		return logr.Discard(), err
	}
	zapLog, err := zapCfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zapLog), nil
}

func zapConfig(c Config) (zap.Config, error) {
	cfg := zap.Config{
		Development:      c.Development,
		Encoding:         FormatJSON,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if c.Development {
		cfg.Encoding = FormatConsole
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	switch c.Format {
	case "":
	case FormatJSON, FormatConsole:
		cfg.Encoding = c.Format
	default:
		return cfg, errors.Errorf("unknown log format %q", c.Format)
	}
	if len(c.OutputPaths) != 0 {
		cfg.OutputPaths = c.OutputPaths
	}

	// logr levels are negative zap levels
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(int8(-c.Verbosity)))
	cfg.DisableStacktrace = c.DisableStacktrace
	cfg.DisableCaller = c.DisableCaller
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg, nil
}

// InitFlags adds the logging flags to the flagset.
func InitFlags(flagset *flag.FlagSet) {
	if flagset == nil {
		flagset = flag.CommandLine
	}

	flagset.BoolVar(&configFromFlags.Development, "dev", false, "enable development logging which result in console encoding, enabled stacktrace and enabled caller")
	flagset.IntVarP(&configFromFlags.Verbosity, "verbosity", "v", 1, "number for the log level verbosity")
	flagset.BoolVar(&configFromFlags.DisableStacktrace, "disable-stacktrace", true, "disable the stacktrace of error logs")
	flagset.BoolVar(&configFromFlags.DisableCaller, "disable-caller", true, "disable the caller of logs")
	flagset.StringVar(&configFromFlags.Format, "log-format", "", `encoding of the logs: "json" or "console"; defaults to the encoding of the mode`)
}
