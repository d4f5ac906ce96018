// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package shipper

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch/bulk"
)

// BatchEvent is emitted after a batch was accepted by elastic search.
type BatchEvent struct {
	// Batch is the number of the batch within the run starting with 1.
	Batch    int
	Result   bulk.Result
	Duration time.Duration
}

// Summary is emitted once a run shipped all its actions.
type Summary struct {
	Index    string
	Tally    Tally
	Duration time.Duration
}

// Observer is notified about the progress of a shipping run.
type Observer interface {
	BatchShipped(BatchEvent)
	// ItemFailed is called for every reported failure of a batch.
	ItemFailed(batch int, failure bulk.ItemFailure)
	// Retrying is called before a failed bulk request is sent again.
	Retrying(elasticsearch.RetryEvent)
	Finished(Summary)
}

// Observers notifies all observers in order.
type Observers []Observer

var _ Observer = Observers{}

func (o Observers) BatchShipped(e BatchEvent) {
	for _, obs := range o {
		obs.BatchShipped(e)
	}
}

func (o Observers) ItemFailed(batch int, f bulk.ItemFailure) {
	for _, obs := range o {
		obs.ItemFailed(batch, f)
	}
}

func (o Observers) Retrying(e elasticsearch.RetryEvent) {
	for _, obs := range o {
		obs.Retrying(e)
	}
}

func (o Observers) Finished(s Summary) {
	for _, obs := range o {
		obs.Finished(s)
	}
}

type logObserver struct {
	log   logr.Logger
	index string
}

// NewLogObserver creates an observer that writes structured log lines.
func NewLogObserver(log logr.Logger, index string) Observer {
	return &logObserver{log: log, index: index}
}

func (o *logObserver) BatchShipped(e BatchEvent) {
	o.log.V(3).Info(fmt.Sprintf("Bulk sent %d ops in %d ms", e.Result.Attempted, e.Result.Took),
		"batch", e.Batch,
		"failed", e.Result.Failed,
		"duration", e.Duration.String())
	if e.Result.Failed > len(e.Result.Failures) {
		o.log.Info("not all failed actions of the batch are reported",
			"batch", e.Batch,
			"failed", e.Result.Failed,
			"reported", len(e.Result.Failures))
	}
}

func (o *logObserver) ItemFailed(batch int, f bulk.ItemFailure) {
	o.log.Info("action was rejected",
		"batch", batch,
		"position", f.Position,
		"operation", string(f.Operation),
		"status", f.Status,
		"id", f.ID,
		"error", f.Error)
}

func (o *logObserver) Retrying(e elasticsearch.RetryEvent) {
	o.log.V(3).Info("retrying bulk request", "attempt", e.Attempt, "wait", e.Wait.String())
}

func (o *logObserver) Finished(s Summary) {
	if s.Tally.Attempted == 0 {
		o.log.Info("Nothing to ship", "index", s.Index, "attempted", 0, "failed", 0, "skipped", s.Tally.Skipped)
		return
	}
	o.log.Info(fmt.Sprintf("Upserted %d doc(s) into '%s'. Failures: %d", s.Tally.Attempted, s.Index, s.Tally.Failed),
		"attempted", s.Tally.Attempted,
		"failed", s.Tally.Failed,
		"skipped", s.Tally.Skipped,
		"batches", s.Tally.Batches,
		"duration", s.Duration.String())
}
