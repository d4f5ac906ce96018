// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package shipper

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch/bulk"
)

// Config configures the destination of a shipper.
type Config struct {
	// Index is the destination index of all upserts.
	Index string
	// BatchSize is the max number of actions per bulk request.
	BatchSize int
}

// Mapping describes how a record of a source is turned into a document.
type Mapping[T any] struct {
	// Identity returns the document id of a record.
	// Records without an identity are skipped.
	Identity func(T) (string, bool)
	// Document returns the fields that are upserted for a record.
	Document func(T) map[string]interface{}
}

// Tally holds the counters of one shipping run.
type Tally struct {
	// Attempted is the number of actions that were sent.
	Attempted int
	// Failed is the number of actions that were rejected by elastic search.
	Failed int
	// Skipped is the number of records without identity.
	Skipped int
	// Batches is the number of bulk requests that were sent.
	Batches int
}

// Add folds the result of a batch into the tally.
func (t *Tally) Add(res bulk.Result) {
	t.Attempted += res.Attempted
	t.Failed += res.Failed
	t.Batches++
}

// Shipper sends actions in batches to the bulk api of elastic search.
type Shipper struct {
	log      logr.Logger
	client   elasticsearch.Client
	cfg      Config
	observer Observer
}

// New creates a new shipper. Every shipper logs its events, additional observers
// are notified after the logger.
func New(log logr.Logger, client elasticsearch.Client, cfg Config, observers ...Observer) *Shipper {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = bulk.DefaultBatchSize
	}
	return &Shipper{
		log:      log,
		client:   client,
		cfg:      cfg,
		observer: append(Observers{NewLogObserver(log, cfg.Index)}, observers...),
	}
}

// ShipActions sends the given actions in batches.
// A failed bulk request aborts the run. Actions rejected by elastic search are only counted.
func (s *Shipper) ShipActions(ctx context.Context, actions []bulk.Action) (Tally, error) {
	r := s.newRun()
	for _, a := range actions {
		if err := r.add(ctx, a); err != nil {
			return r.tally, err
		}
	}
	return r.finish(ctx)
}

// Ship upserts all records with an identity into the index of the shipper.
func Ship[T any](ctx context.Context, s *Shipper, records []T, m Mapping[T]) (Tally, error) {
	r := s.newRun()
	for i, rec := range records {
		id, ok := m.Identity(rec)
		if !ok || id == "" {
			r.tally.Skipped++
			s.log.V(3).Info("skipping record without identity", "record", i)
			continue
		}
		if err := r.add(ctx, bulk.NewUpsert(s.cfg.Index, id, m.Document(rec))); err != nil {
			return r.tally, err
		}
	}
	return r.finish(ctx)
}

// run holds the state of one shipping run.
type run struct {
	s       *Shipper
	batcher *bulk.Batcher
	tally   Tally
	start   time.Time
}

func (s *Shipper) newRun() *run {
	return &run{
		s:       s,
		batcher: bulk.NewBatcher(s.cfg.BatchSize),
		start:   time.Now(),
	}
}

func (r *run) add(ctx context.Context, a bulk.Action) error {
	r.batcher.Append(a)
	if !r.batcher.ShouldFlush() {
		return nil
	}
	return r.flush(ctx, r.batcher.Drain())
}

func (r *run) finish(ctx context.Context) (Tally, error) {
	if r.batcher.Len() != 0 {
		if err := r.flush(ctx, r.batcher.Drain()); err != nil {
			return r.tally, err
		}
	}
	r.s.observer.Finished(Summary{
		Index:    r.s.cfg.Index,
		Tally:    r.tally,
		Duration: time.Since(r.start),
	})
	return r.tally, nil
}

func (r *run) flush(ctx context.Context, batch []bulk.Action) error {
	number := r.tally.Batches + 1
	data, err := bulk.Encode(batch)
	if err != nil {
		return errors.Wrapf(err, "unable to encode batch %d", number)
	}

	start := time.Now()
	body, err := r.s.client.Bulk(ctx, data)
	if err != nil {
		r.s.log.Error(err, "bulk request failed",
			"batch", number,
			"actions", len(batch),
			"firstID", batch[0].Metadata.ID,
			"lastID", batch[len(batch)-1].Metadata.ID,
			"shipped", r.tally.Attempted)
		return errors.Wrapf(err, "unable to ship batch %d with %d action(s)", number, len(batch))
	}

	res, err := bulk.Aggregate(batch, body)
	if err != nil {
		return errors.Wrapf(err, "unable to read response of batch %d", number)
	}
	r.tally.Add(res)

	r.s.observer.BatchShipped(BatchEvent{
		Batch:    number,
		Result:   res,
		Duration: time.Since(start),
	})
	for _, f := range res.Failures {
		r.s.observer.ItemFailed(number, f)
	}
	return nil
}
