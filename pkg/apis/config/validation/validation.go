// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"fmt"
	"net/url"

	"github.com/hashicorp/go-multierror"

	"github.com/gardener/os-release-indexer/pkg/apis/config"
	"github.com/gardener/os-release-indexer/pkg/util"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch"
)

// ValidateConfiguration validates the passed configuration instance.
// All found issues are returned as one error.
func ValidateConfiguration(cfg *config.Configuration) error {
	var allErrs *multierror.Error

	allErrs = multierror.Append(allErrs, validateElasticSearch(cfg.ElasticSearch, cfg.Shipping.DryRun, "esConfiguration")...)
	allErrs = multierror.Append(allErrs, validateShipping(cfg.Shipping, "shipping")...)
	if cfg.S3 != nil {
		allErrs = multierror.Append(allErrs, validateS3Config(cfg.S3, "s3Configuration")...)
	}

	return util.ReturnMultiError(allErrs)
}

func validateElasticSearch(es config.ElasticSearch, dryRun bool, fldPath string) []error {
	allErrs := make([]error, 0)

	if len(es.Index) == 0 {
		allErrs = append(allErrs, required(fldPath, "index", "no destination index is specified"))
	}
	if dryRun {
		return allErrs
	}

	if len(es.Endpoint) == 0 {
		allErrs = append(allErrs, required(fldPath, "endpoint", "no elastic search endpoint is specified"))
	} else if u, err := url.Parse(es.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		allErrs = append(allErrs, invalid(fldPath, "endpoint", es.Endpoint, "has to be an absolute url"))
	}
	if len(es.APIKey) == 0 && (len(es.Username) == 0 || len(es.Password) == 0) {
		allErrs = append(allErrs, required(fldPath, "apiKey", "either an api key or username and password have to be defined"))
	}
	return allErrs
}

func validateShipping(s config.Shipping, fldPath string) []error {
	allErrs := make([]error, 0)
	if s.BatchSize < 1 {
		allErrs = append(allErrs, invalid(fldPath, "batchSize", s.BatchSize, "has to be greater than 0"))
	}
	if s.MaxRetries < 1 || s.MaxRetries > config.MaxRetriesLimit {
		allErrs = append(allErrs, invalid(fldPath, "maxRetries", s.MaxRetries, fmt.Sprintf("has to be between 1 and %d", config.MaxRetriesLimit)))
	}
	if s.RetryBackoff < 0 {
		allErrs = append(allErrs, invalid(fldPath, "retryBackoff", s.RetryBackoff, "must not be negative"))
	}
	if _, err := elasticsearch.ParseRefreshMode(s.Refresh); err != nil {
		allErrs = append(allErrs, invalid(fldPath, "refresh", s.Refresh, `has to be one of "true", "false", "wait_for", "none" or empty`))
	}
	return allErrs
}

// validateS3Config validates the passed s3 configuration instance
func validateS3Config(s3 *config.S3, fldPath string) []error {
	allErrs := make([]error, 0)

	if len(s3.Server.Endpoint) == 0 {
		allErrs = append(allErrs, required(fldPath, "server.endpoint", "no s3 endpoint is specified"))
	}
	if len(s3.AccessKey) == 0 {
		allErrs = append(allErrs, required(fldPath, "accessKey", "no s3 access key is specified"))
	}
	if len(s3.SecretKey) == 0 {
		allErrs = append(allErrs, required(fldPath, "secretKey", "no s3 secret key is specified"))
	}
	if len(s3.BucketName) == 0 {
		allErrs = append(allErrs, required(fldPath, "bucketName", "no s3 bucket is specified"))
	}

	return allErrs
}

func required(fldPath, child, msg string) error {
	return fmt.Errorf("%s.%s: Required value: %s", fldPath, child, msg)
}

func invalid(fldPath, child string, value interface{}, msg string) error {
	return fmt.Errorf("%s.%s: Invalid value: %v: %s", fldPath, child, value, msg)
}
