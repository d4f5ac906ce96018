// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package shipper

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch/bulk"
)

const metricsPrefix = "os_release_indexer"

// MetricsObserver counts the events of shipping runs in a metrics set.
type MetricsObserver struct {
	set *metrics.Set

	attempted *metrics.Counter
	failed    *metrics.Counter
	skipped   *metrics.Counter
	batches   *metrics.Counter
	retries   *metrics.Counter
	runs      *metrics.Counter
	took      *metrics.Histogram
	duration  *metrics.Histogram
}

var _ Observer = &MetricsObserver{}

// NewMetricsObserver creates an observer whose metrics carry the given source label.
func NewMetricsObserver(set *metrics.Set, source string) *MetricsObserver {
	name := func(metric string) string {
		return fmt.Sprintf(`%s_%s{source=%q}`, metricsPrefix, metric, source)
	}
	return &MetricsObserver{
		set:       set,
		attempted: set.GetOrCreateCounter(name("actions_attempted_total")),
		failed:    set.GetOrCreateCounter(name("actions_failed_total")),
		skipped:   set.GetOrCreateCounter(name("records_skipped_total")),
		batches:   set.GetOrCreateCounter(name("batches_total")),
		retries:   set.GetOrCreateCounter(name("bulk_retries_total")),
		runs:      set.GetOrCreateCounter(name("runs_total")),
		took:      set.GetOrCreateHistogram(name("bulk_took_milliseconds")),
		duration:  set.GetOrCreateHistogram(name("run_duration_seconds")),
	}
}

func (m *MetricsObserver) BatchShipped(e BatchEvent) {
	m.attempted.Add(e.Result.Attempted)
	m.failed.Add(e.Result.Failed)
	m.batches.Inc()
	m.took.Update(float64(e.Result.Took))
}

func (m *MetricsObserver) ItemFailed(_ int, _ bulk.ItemFailure) {}

func (m *MetricsObserver) Retrying(_ elasticsearch.RetryEvent) {
	m.retries.Inc()
}

func (m *MetricsObserver) Finished(s Summary) {
	m.skipped.Add(s.Tally.Skipped)
	m.runs.Inc()
	m.duration.Update(s.Duration.Seconds())
}

// WritePrometheus writes all metrics of the set in prometheus text format.
func (m *MetricsObserver) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

// WriteFile atomically replaces the given file with the current metrics
// so that a textfile collector never reads a partial file.
func (m *MetricsObserver) WriteFile(path string) error {
	var buf bytes.Buffer
	m.WritePrometheus(&buf)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "unable to create temporary metrics file for %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "unable to write metrics to %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "unable to close %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrapf(err, "unable to set permissions of %s", tmp.Name())
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "unable to move metrics to %s", path)
}
