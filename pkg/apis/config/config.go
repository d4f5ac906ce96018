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

package config

import "time"

// Configuration contains all configuration values of one indexer run.
type Configuration struct {
	ElasticSearch ElasticSearch `json:"esConfiguration" yaml:"esConfiguration"`
	Shipping      Shipping      `json:"shipping" yaml:"shipping"`
	Source        Source        `json:"source" yaml:"source"`
	Cache         Cache         `json:"cache,omitempty" yaml:"cache,omitempty"`
	S3            *S3           `json:"s3Configuration,omitempty" yaml:"s3Configuration,omitempty"`
	Observability Observability `json:"observability,omitempty" yaml:"observability,omitempty"`
}

// ElasticSearch holds information about the elastic search instance the documents are written to.
type ElasticSearch struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIKey is the base64 encoded api key that is sent as "ApiKey" authorization.
	APIKey string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`

	// Username and Password are used for basic auth if no api key is configured.
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// Index is the destination index of all upserts.
	Index string `json:"index" yaml:"index"`
}

// Shipping configures batching and the retry behavior of bulk requests.
type Shipping struct {
	// BatchSize is the max number of actions per bulk request.
	BatchSize int `json:"batchSize" yaml:"batchSize"`

	// MaxRetries is the max number of attempts of one bulk request.
	MaxRetries int `json:"maxRetries" yaml:"maxRetries"`

	// RetryBackoff is the base wait time between attempts. It doubles with every attempt.
	RetryBackoff time.Duration `json:"retryBackoff" yaml:"retryBackoff"`

	// Refresh is one of "true", "false", "wait_for" or "" to not send the parameter.
	Refresh string `json:"refresh" yaml:"refresh"`

	// Timeout of a single http request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Compress enables gzip compression of bulk request bodies.
	Compress bool `json:"compress,omitempty" yaml:"compress,omitempty"`

	// DryRun writes the bulk documents to stdout instead of sending them.
	DryRun bool `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
}

// Source holds information about the upstream release information.
type Source struct {
	// ReleaseInfoURL is the page or api the release information is read from.
	// It is also written to the "source" field of windows and macOS documents.
	ReleaseInfoURL string `json:"releaseInfoURL,omitempty" yaml:"releaseInfoURL,omitempty"`

	// Distro is the linux distribution of a series payload.
	// It is inferred from the payload source if empty.
	Distro string `json:"distro,omitempty" yaml:"distro,omitempty"`
}

// Cache configures the http cache that is used by the fetchers.
type Cache struct {
	// Dir enables a disk cache in the given directory. An in-memory cache is used if empty.
	Dir string `json:"cacheDir,omitempty" yaml:"cacheDir,omitempty"`

	// DiskSizeMB is the max size of the disk cache.
	DiskSizeMB int `json:"cacheDiskSizeMB,omitempty" yaml:"cacheDiskSizeMB,omitempty"`

	// MaxAge forces responses to be cached for the given duration.
	MaxAge time.Duration `json:"maxAge,omitempty" yaml:"maxAge,omitempty"`
}

// Observability configures the run reports.
type Observability struct {
	// MetricsFile is the path the run metrics are written to in prometheus text format.
	MetricsFile string `json:"metricsFile,omitempty" yaml:"metricsFile,omitempty"`

	// SummaryFile is the github step summary file the run summary is appended to.
	SummaryFile string `json:"summaryFile,omitempty" yaml:"summaryFile,omitempty"`

	// Table prints a summary table to stdout.
	Table bool `json:"table,omitempty" yaml:"table,omitempty"`
}
