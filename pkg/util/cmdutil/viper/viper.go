// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package viper

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyAnnotation = "key"
)

// DefaultEnvFiles are loaded if they exist. Variables that are already set are not overwritten.
var DefaultEnvFiles = []string{".env", ".env.local"}

type viperHelper struct {
	viper  *viper.Viper
	pflags map[string]*flag.Flag
	envs   map[string][]string

	customConfigPath string
	envFiles         []string
}

// NewViperHelper creates a new ViperHelper instance.
func NewViperHelper(v *viper.Viper, name string, configPaths ...string) *viperHelper {
	if v == nil {
		v = viper.New()
	}
	v.SetConfigName(name)
	v.SetConfigType("yaml")

	vh := &viperHelper{
		viper:  v,
		pflags: map[string]*flag.Flag{},
		envs:   map[string][]string{},
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	return vh
}

// InitFlags adds the config file flags.
func (h *viperHelper) InitFlags(fs *flag.FlagSet) {
	if fs == nil {
		fs = flag.CommandLine
	}
	fs.StringVar(&h.customConfigPath, "config", "", "Path to a yaml configuration file")
	fs.StringSliceVar(&h.envFiles, "env-file", nil, "Additional dotenv files that are loaded before the environment is read")
}

// BindPFlag binds a pflag to viper and stores a internal reference
func (h *viperHelper) BindPFlag(key string, f *flag.Flag) {
	AddCustomConfigForFlag(f, key)
	h.pflags[key] = f
	_ = h.viper.BindPFlag(key, f)
}

// BindPFlagFromFlagSet binds the flag with the given name to the configuration key.
func (h *viperHelper) BindPFlagFromFlagSet(fs *flag.FlagSet, name, key string) {
	if f := fs.Lookup(name); f != nil {
		h.BindPFlag(key, f)
	}
}

// BindEnv binds environment variables to a configuration key.
// The first variable that is set wins.
func (h *viperHelper) BindEnv(key string, envs ...string) {
	h.envs[key] = append(h.envs[key], envs...)
	_ = h.viper.BindEnv(append([]string{key}, envs...)...)
}

// LoadEnvFiles loads the default dotenv files if they exist and all explicitly configured ones.
func (h *viperHelper) LoadEnvFiles() error {
	for _, file := range DefaultEnvFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return errors.Wrapf(err, "unable to load env file %s", file)
		}
	}
	if len(h.envFiles) != 0 {
		if err := godotenv.Load(h.envFiles...); err != nil {
			return errors.Wrapf(err, "unable to load env files %s", strings.Join(h.envFiles, ","))
		}
	}
	return nil
}

// ReadInConfig will discover and load the configuration file from disk, searching in one of the defined paths.
// A missing configuration file is only an error if it was explicitly configured.
func (h *viperHelper) ReadInConfig() error {
	if h.customConfigPath != "" {
		h.viper.SetConfigFile(h.customConfigPath)
		if err := h.viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "unable to read config from %s", h.customConfigPath)
		}
		return nil
	}
	if err := h.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// ApplyConfig writes the values of the environment and the config file back to the originated pflag variable pointer.
// Flags that were explicitly set on the command line are not modified.
func (h *viperHelper) ApplyConfig() error {
	for key, f := range h.pflags {
		if f.Changed || !h.viper.IsSet(key) {
			continue
		}
		value := h.viper.GetString(key)
		if f.Value.Type() == "duration" {
			d, err := h.duration(key)
			if err != nil {
				return errors.Wrapf(err, "invalid value for %s", key)
			}
			value = d.String()
		}
		if err := f.Value.Set(value); err != nil {
			return errors.Wrapf(err, "invalid value for %s", key)
		}
	}
	return nil
}

// duration reads a duration value. Numbers without unit are seconds.
func (h *viperHelper) duration(key string) (time.Duration, error) {
	raw := h.viper.Get(key)
	if str, ok := raw.(string); ok {
		str = strings.TrimSpace(str)
		if _, err := strconv.ParseFloat(str, 64); err != nil {
			return time.ParseDuration(str)
		}
		raw = str
	}
	if d, ok := raw.(time.Duration); ok {
		return d, nil
	}
	sec, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// Load reads the env files, the config file and applies the result to all bound flags.
func (h *viperHelper) Load() error {
	if err := h.LoadEnvFiles(); err != nil {
		return err
	}
	if err := h.ReadInConfig(); err != nil {
		return err
	}
	return h.ApplyConfig()
}

// Key describes a configuration key and where it can be set.
type Key struct {
	Key   string
	Flag  string
	Envs  []string
	Usage string
}

// Keys returns all bound configuration keys ordered by key.
func (h *viperHelper) Keys() []Key {
	keys := make([]Key, 0, len(h.pflags))
	for key, f := range h.pflags {
		keys = append(keys, Key{
			Key:   key,
			Flag:  "--" + f.Name,
			Envs:  h.envs[key],
			Usage: f.Usage,
		})
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Key < keys[j].Key
	})
	return keys
}

// GetConfigKey returns the configuration key of a flag.
func GetConfigKey(flag *flag.Flag) string {
	if flag.Annotations != nil {
		if key, ok := flag.Annotations[KeyAnnotation]; ok && len(key) != 0 {
			return key[0]
		}
	}
	return flag.Name
}

// AddCustomConfigForFlag sets a custom configuration key for the given flag
func AddCustomConfigForFlag(f *flag.Flag, key string) {
	if f.Annotations == nil {
		f.Annotations = map[string][]string{}
	}
	f.Annotations[KeyAnnotation] = []string{key}
}

var ViperHelper = NewViperHelper(nil, "config", ".", "$HOME/.os-release-indexer")

// SetViper replaces the global helper.
func SetViper(helper *viperHelper) {
	ViperHelper = helper
}

// InitFlags adds the config file flags of the global helper.
func InitFlags(fs *flag.FlagSet) {
	ViperHelper.InitFlags(fs)
}
