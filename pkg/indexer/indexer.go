// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package indexer

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/apis/config"
	"github.com/gardener/os-release-indexer/pkg/logger"
	"github.com/gardener/os-release-indexer/pkg/shipper"
	"github.com/gardener/os-release-indexer/pkg/sources"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch/bulk"
	"github.com/gardener/os-release-indexer/pkg/util/httpcache"
	"github.com/gardener/os-release-indexer/pkg/util/output"
	"github.com/gardener/os-release-indexer/pkg/util/s3"
)

// Indexer holds everything one run of a source needs:
// the elastic search client, the http client of the fetchers and the optional snapshot archive.
type Indexer struct {
	log   logr.Logger
	cfg   config.Configuration
	runID string
	out   io.Writer
	now   func() time.Time

	client     elasticsearch.Client
	httpClient *http.Client
	archive    *s3.Archive
	metrics    *metrics.Set

	observers shipper.Observers
}

// Option customizes an indexer.
type Option func(*Indexer)

// WithClient sets the elastic search client instead of creating one from the configuration.
func WithClient(c elasticsearch.Client) Option {
	return func(ix *Indexer) { ix.client = c }
}

// WithHTTPClient sets the http client that is used to fetch upstream data.
func WithHTTPClient(c *http.Client) Option {
	return func(ix *Indexer) { ix.httpClient = c }
}

// WithArchive sets the snapshot archive instead of creating one from the s3 configuration.
func WithArchive(a *s3.Archive) Option {
	return func(ix *Indexer) { ix.archive = a }
}

// WithOutput sets the writer of dry runs and summary tables. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(ix *Indexer) { ix.out = w }
}

// WithNow sets the clock of the run.
func WithNow(now func() time.Time) Option {
	return func(ix *Indexer) { ix.now = now }
}

// WithRunID sets the id of the run. A random id is used otherwise.
func WithRunID(id string) Option {
	return func(ix *Indexer) { ix.runID = id }
}

// New creates a new indexer from a validated configuration.
func New(log logr.Logger, cfg config.Configuration, opts ...Option) (*Indexer, error) {
	ix := &Indexer{
		cfg:     cfg,
		out:     os.Stdout,
		now:     time.Now,
		metrics: metrics.NewSet(),
	}
	for _, o := range opts {
		o(ix)
	}
	if ix.runID == "" {
		ix.runID = uuid.New().String()
	}
	ix.log = log.WithValues("run", ix.runID)

	if ix.httpClient == nil {
		c, err := httpcache.NewClient(ix.log, cfg.Cache, cfg.Shipping.Timeout)
		if err != nil {
			return nil, err
		}
		ix.httpClient = c
	}

	if ix.client == nil {
		c, err := ix.newClient()
		if err != nil {
			return nil, err
		}
		ix.client = c
	}

	if ix.archive == nil && cfg.S3 != nil {
		c, err := s3.New(cfg.S3)
		if err != nil {
			return nil, err
		}
		ix.archive = s3.NewArchive(ix.log, c, cfg.S3.BucketName).WithPrefix(cfg.S3.Prefix)
	}
	return ix, nil
}

func (ix *Indexer) newClient() (elasticsearch.Client, error) {
	if ix.cfg.Shipping.DryRun {
		ix.log.Info("dry run: bulk documents are written to stdout")
		return elasticsearch.NewDryRunClient(ix.out), nil
	}
	refresh, err := elasticsearch.ParseRefreshMode(ix.cfg.Shipping.Refresh)
	if err != nil {
		return nil, err
	}
	return elasticsearch.NewClient(ix.log, ix.cfg.ElasticSearch, elasticsearch.Options{
		Refresh:      refresh,
		MaxRetries:   ix.cfg.Shipping.MaxRetries,
		RetryBackoff: ix.cfg.Shipping.RetryBackoff,
		Timeout:      ix.cfg.Shipping.Timeout,
		Compress:     ix.cfg.Shipping.Compress,
		OnRetry:      ix.retrying,
	})
}

func (ix *Indexer) retrying(e elasticsearch.RetryEvent) {
	ix.observers.Retrying(e)
}

// RunID returns the id of the run.
func (ix *Indexer) RunID() string {
	return ix.runID
}

// Log returns the logger of the run.
func (ix *Indexer) Log() logr.Logger {
	return ix.log
}

// Client returns the elastic search client of the run.
func (ix *Indexer) Client() elasticsearch.Client {
	return ix.client
}

// Now returns the time all documents of the run are stamped with.
func (ix *Indexer) Now() time.Time {
	return ix.now()
}

// Fetch reads the upstream data from a url or file and archives it if an archive is configured.
// A failed upload is only logged.
func (ix *Indexer) Fetch(ctx context.Context, source, location, accept, ext string) (*sources.Snapshot, error) {
	snap, err := sources.Load(ctx, ix.httpClient, location, accept)
	if err != nil {
		return nil, err
	}
	ix.log.V(3).Info("fetched upstream data", "source", source, "location", location, "size", len(snap.Data))

	if ix.archive != nil {
		key := s3.ObjectKey(source, ix.runID, snap.FetchedAt, ext)
		if err := ix.archive.Store(ctx, key, snap.Data, accept); err != nil {
			ix.log.Error(err, "unable to archive upstream data", "source", source, "key", key)
		}
	}
	return snap, nil
}

// Replay reads a previously archived snapshot instead of fetching the upstream data.
func (ix *Indexer) Replay(key string) (*sources.Snapshot, error) {
	if ix.archive == nil {
		return nil, errors.New("replaying a snapshot requires a s3 configuration")
	}
	data, err := ix.archive.Load(key)
	if err != nil {
		return nil, err
	}
	return &sources.Snapshot{
		Location:  ix.archive.Location(key),
		Data:      data,
		FetchedAt: ix.now(),
	}, nil
}

// Run upserts the records of a source into the configured index and reports the run.
func Run[T any](ctx context.Context, ix *Indexer, source string, records []T, m shipper.Mapping[T]) (shipper.Tally, error) {
	s, r := ix.newShipper(source)
	tally, err := shipper.Ship(ctx, s, records, m)
	return tally, ix.report(source, r, tally, err)
}

// RunActions ships prepared bulk actions and reports the run.
func (ix *Indexer) RunActions(ctx context.Context, source string, actions []bulk.Action) (shipper.Tally, error) {
	s, r := ix.newShipper(source)
	tally, err := s.ShipActions(ctx, actions)
	return tally, ix.report(source, r, tally, err)
}

type runReport struct {
	report  *output.Report
	metrics *shipper.MetricsObserver
}

func (ix *Indexer) newShipper(source string) (*shipper.Shipper, runReport) {
	r := runReport{
		report:  output.NewReport(source),
		metrics: shipper.NewMetricsObserver(ix.metrics, source),
	}
	ix.observers = shipper.Observers{r.report, r.metrics}
	s := shipper.New(ix.log.WithValues("source", source), ix.client, shipper.Config{
		Index:     ix.cfg.ElasticSearch.Index,
		BatchSize: ix.cfg.Shipping.BatchSize,
	}, ix.observers...)
	return s, r
}

// report writes the configured run reports. The shipping error takes precedence over report errors.
func (ix *Indexer) report(source string, r runReport, tally shipper.Tally, shipErr error) error {
	if shipErr != nil {
		r.report.Summary = shipper.Summary{Index: ix.cfg.ElasticSearch.Index, Tally: tally}
	}
	obs := ix.cfg.Observability

	var reportErr error
	if obs.Table {
		r.report.RenderSummaryTable(ix.out)
	}
	if obs.SummaryFile != "" {
		if err := logger.NewStepSummary(obs.SummaryFile).Post(r.report.Markdown()); err != nil {
			reportErr = errors.Wrapf(err, "unable to write step summary of %s", source)
		}
	}
	if obs.MetricsFile != "" {
		if err := r.metrics.WriteFile(obs.MetricsFile); err != nil {
			reportErr = err
		}
	}

	if shipErr != nil {
		return shipErr
	}
	return reportErr
}
