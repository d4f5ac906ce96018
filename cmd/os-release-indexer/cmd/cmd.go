// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/gardener/os-release-indexer/pkg/apis/config"
	"github.com/gardener/os-release-indexer/pkg/apis/config/validation"
	"github.com/gardener/os-release-indexer/pkg/indexer"
	"github.com/gardener/os-release-indexer/pkg/logger"
	"github.com/gardener/os-release-indexer/pkg/shipper"
	"github.com/gardener/os-release-indexer/pkg/util/cmdutil/viper"
)

var (
	cfg         config.Configuration
	s3Cfg       config.S3
	fromArchive string

	log = logr.Discard()
)

var rootCmd = &cobra.Command{
	Use:           "os-release-indexer",
	Short:         "Indexes the latest release versions of operating systems into elasticsearch",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := viper.ViperHelper.Load(); err != nil {
			return err
		}
		l, err := logger.New(nil)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

// Execute executes the indexer cli commands.
// The context of all commands is cancelled on SIGINT and SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	fs := rootCmd.PersistentFlags()
	logger.InitFlags(fs)
	viper.InitFlags(fs)

	fs.StringVar(&cfg.ElasticSearch.Endpoint, "es-url", "", "Elasticsearch endpoint, e.g. https://example.com:9200")
	fs.StringVar(&cfg.ElasticSearch.APIKey, "api-key", "", "Base64 encoded elasticsearch api key")
	fs.StringVar(&cfg.ElasticSearch.Username, "es-username", "", "Elasticsearch basic auth username that is used if no api key is defined")
	fs.StringVar(&cfg.ElasticSearch.Password, "es-password", "", "Elasticsearch basic auth password")
	fs.StringVar(&cfg.ElasticSearch.Index, "index", "", "Destination index of all documents")

	fs.IntVar(&cfg.Shipping.BatchSize, "batch-size", config.DefaultBatchSize, "Max number of actions per bulk request")
	fs.IntVar(&cfg.Shipping.MaxRetries, "max-retries", config.DefaultMaxRetries, "Max number of attempts of a bulk request")
	fs.DurationVar(&cfg.Shipping.RetryBackoff, "retry-backoff", config.DefaultRetryBackoff, "Wait time after the first failed attempt; doubles with every attempt")
	fs.StringVar(&cfg.Shipping.Refresh, "refresh", config.DefaultRefresh, `Refresh mode of bulk requests: "true", "false", "wait_for" or "none"`)
	fs.DurationVar(&cfg.Shipping.Timeout, "timeout", config.DefaultTimeout, "Timeout of a single http request")
	fs.BoolVar(&cfg.Shipping.Compress, "compress", false, "Send gzip compressed bulk requests")
	fs.BoolVar(&cfg.Shipping.DryRun, "dry-run", false, "Print the bulk documents instead of sending them")

	fs.StringVar(&cfg.Source.ReleaseInfoURL, "release-info-url", "", "Url or file of the upstream release information. Defaults to the public page of the source")
	fs.StringVar(&fromArchive, "from-archive", "", "Replay the archived snapshot with the given key instead of fetching the upstream data")

	fs.StringVar(&cfg.Cache.Dir, "cache-dir", "", "Directory of the http cache of upstream pages. An in-memory cache is used if empty")
	fs.IntVar(&cfg.Cache.DiskSizeMB, "cache-size-mb", config.DefaultCacheDiskSizeMB, "Max size of the disk cache")
	fs.DurationVar(&cfg.Cache.MaxAge, "cache-max-age", config.DefaultCacheMaxAge, "Time upstream pages are cached")

	fs.StringVar(&s3Cfg.Server.Endpoint, "s3-endpoint", "", "S3 endpoint the upstream snapshots are archived to")
	fs.BoolVar(&s3Cfg.Server.SSL, "s3-ssl", false, "Use ssl to connect to s3")
	fs.StringVar(&s3Cfg.BucketName, "s3-bucket", "", "S3 bucket of the snapshot archive")
	fs.StringVar(&s3Cfg.Prefix, "s3-prefix", "", "Key prefix of the archived snapshots")
	fs.StringVar(&s3Cfg.AccessKey, "s3-access-key", "", "S3 access key")
	fs.StringVar(&s3Cfg.SecretKey, "s3-secret-key", "", "S3 secret key")

	fs.StringVar(&cfg.Observability.MetricsFile, "metrics-file", "", "Write the run metrics in prometheus text format to the file")
	fs.StringVar(&cfg.Observability.SummaryFile, "gha-summary-file", "", "Append the run summary to the github step summary file")
	fs.BoolVar(&cfg.Observability.Table, "table", false, "Print a summary table of the run")

	bind := func(flag, key string, envs ...string) {
		viper.ViperHelper.BindPFlagFromFlagSet(fs, flag, key)
		if len(envs) != 0 {
			viper.ViperHelper.BindEnv(key, envs...)
		}
	}
	bind("es-url", "esConfiguration.endpoint", "ES_URL")
	bind("api-key", "esConfiguration.apiKey", "API_KEY_B64")
	bind("es-username", "esConfiguration.username", "ES_USERNAME")
	bind("es-password", "esConfiguration.password", "ES_PASSWORD")
	bind("index", "esConfiguration.index", "DEST_INDEX")
	bind("batch-size", "shipping.batchSize", "BATCH_SIZE")
	bind("max-retries", "shipping.maxRetries", "MAX_RETRIES")
	bind("retry-backoff", "shipping.retryBackoff", "RETRY_BACKOFF")
	bind("refresh", "shipping.refresh", "REFRESH")
	bind("timeout", "shipping.timeout", "ES_TIMEOUT")
	bind("compress", "shipping.compress", "ES_COMPRESS")
	bind("dry-run", "shipping.dryRun", "DRY_RUN")
	bind("release-info-url", "source.releaseInfoURL", "RELEASE_INFO_URL")
	bind("cache-dir", "cache.cacheDir", "CACHE_DIR")
	bind("cache-size-mb", "cache.cacheDiskSizeMB")
	bind("cache-max-age", "cache.maxAge")
	bind("s3-endpoint", "s3Configuration.server.endpoint", "S3_ENDPOINT")
	bind("s3-ssl", "s3Configuration.server.ssl", "S3_SSL")
	bind("s3-bucket", "s3Configuration.bucketName", "S3_BUCKET")
	bind("s3-prefix", "s3Configuration.prefix", "S3_PREFIX")
	bind("s3-access-key", "s3Configuration.accessKey", "S3_ACCESS_KEY")
	bind("s3-secret-key", "s3Configuration.secretKey", "S3_SECRET_KEY")
	bind("metrics-file", "observability.metricsFile", "METRICS_FILE")
	bind("gha-summary-file", "observability.summaryFile", "GITHUB_STEP_SUMMARY")
	bind("table", "observability.table")

	addLinuxCommand(rootCmd)
	addWindowsCommand(rootCmd)
	addMacOSCommand(rootCmd)
	addIngestCommand(rootCmd)
	addPingCommand(rootCmd)
	addConfigCommand(rootCmd)
	addVersionCommand(rootCmd)
}

// configuration returns the configuration of the flags, the environment and the config file.
func configuration() config.Configuration {
	c := cfg
	if s3Cfg.Server.Endpoint != "" || s3Cfg.BucketName != "" {
		s3 := s3Cfg
		c.S3 = &s3
	}
	config.SetDefaults(&c)
	return c
}

func newIndexer(cmd *cobra.Command, c config.Configuration) (*indexer.Indexer, error) {
	if err := validation.ValidateConfiguration(&c); err != nil {
		return nil, err
	}
	return indexer.New(log, c, indexer.WithOutput(cmd.OutOrStdout()))
}

// input returns the upstream input of a source. The default location is used if no release info url is configured.
func input(c config.Configuration, defaultLocation string) indexer.Input {
	location := c.Source.ReleaseInfoURL
	if location == "" {
		location = defaultLocation
	}
	return indexer.Input{Location: location, ArchiveKey: fromArchive}
}

// runSource runs one source and logs the outcome. Rejected documents do not fail the command.
func runSource(cmd *cobra.Command, source string, fn func(ctx context.Context, c config.Configuration, ix *indexer.Indexer) (shipper.Tally, error)) error {
	c := configuration()
	ix, err := newIndexer(cmd, c)
	if err != nil {
		return err
	}
	ix.Log().Info(fmt.Sprintf("Starting %s", source), "index", c.ElasticSearch.Index, "dryRun", c.Shipping.DryRun)
	if _, err := fn(cmd.Context(), c, ix); err != nil {
		ix.Log().Error(err, "run failed", "source", source)
		return err
	}
	return nil
}
