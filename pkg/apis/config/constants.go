// Copyright 2020 Copyright (c) 2020 SAP SE or an SAP affiliate company. All rights reserved. This file is licensed under the Apache Software License, v. 2 except as noted otherwise in the LICENSE file.
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

// DefaultBatchSize is the default number of actions per bulk request
const DefaultBatchSize = 500

// DefaultMaxRetries is the default number of attempts of a bulk request
const DefaultMaxRetries = 3

// MaxRetriesLimit is the highest allowed number of attempts of a bulk request
const MaxRetriesLimit = 20

// DefaultRetryBackoff is the default base wait time between two attempts
const DefaultRetryBackoff = time.Second

// DefaultRefresh is the default refresh mode of bulk requests
const DefaultRefresh = "wait_for"

// DefaultTimeout is the default timeout of a single http request
const DefaultTimeout = 120 * time.Second

// DefaultCacheMaxAge is the time upstream pages are cached if the cache is enabled
const DefaultCacheMaxAge = time.Hour

// DefaultCacheDiskSizeMB is the default max size of the disk cache
const DefaultCacheDiskSizeMB = 100

// RedactedValue replaces secrets when a configuration is printed
const RedactedValue = "<redacted>"

// SetDefaults sets the default values of all unset shipping and cache fields.
func SetDefaults(cfg *Configuration) {
	if cfg.Shipping.BatchSize <= 0 {
		cfg.Shipping.BatchSize = DefaultBatchSize
	}
	if cfg.Shipping.MaxRetries <= 0 {
		cfg.Shipping.MaxRetries = DefaultMaxRetries
	}
	if cfg.Shipping.RetryBackoff < 0 {
		cfg.Shipping.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Shipping.Timeout <= 0 {
		cfg.Shipping.Timeout = DefaultTimeout
	}
	if cfg.Cache.MaxAge <= 0 {
		cfg.Cache.MaxAge = DefaultCacheMaxAge
	}
	if cfg.Cache.DiskSizeMB <= 0 {
		cfg.Cache.DiskSizeMB = DefaultCacheDiskSizeMB
	}
}

// Redacted returns a copy of the configuration without credentials.
func Redacted(cfg Configuration) Configuration {
	redact := func(s string) string {
		if s == "" {
			return ""
		}
		return RedactedValue
	}
	cfg.ElasticSearch.APIKey = redact(cfg.ElasticSearch.APIKey)
	cfg.ElasticSearch.Password = redact(cfg.ElasticSearch.Password)
	if cfg.S3 != nil {
		s3 := *cfg.S3
		s3.AccessKey = redact(s3.AccessKey)
		s3.SecretKey = redact(s3.SecretKey)
		cfg.S3 = &s3
	}
	return cfg
}
