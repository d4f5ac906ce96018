// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package shipper_test

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/VictoriaMetrics/metrics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gardener/os-release-indexer/pkg/shipper"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch/bulk"
)

var _ = Describe("MetricsObserver", func() {
	var (
		set *metrics.Set
		m   *shipper.MetricsObserver
	)

	BeforeEach(func() {
		set = metrics.NewSet()
		m = shipper.NewMetricsObserver(set, "linux")

		m.BatchShipped(shipper.BatchEvent{Batch: 1, Result: bulk.Result{Attempted: 5, Failed: 2, Took: 12}})
		m.BatchShipped(shipper.BatchEvent{Batch: 2, Result: bulk.Result{Attempted: 3}})
		m.Retrying(elasticsearch.RetryEvent{Attempt: 1, Wait: time.Second})
		m.Finished(shipper.Summary{Index: "os-releases", Tally: shipper.Tally{Attempted: 8, Failed: 2, Skipped: 1, Batches: 2}, Duration: time.Second})
	})

	It("should count the shipped actions", func() {
		var buf bytes.Buffer
		m.WritePrometheus(&buf)
		out := buf.String()

		Expect(out).To(ContainSubstring(`os_release_indexer_actions_attempted_total{source="linux"} 8`))
		Expect(out).To(ContainSubstring(`os_release_indexer_actions_failed_total{source="linux"} 2`))
		Expect(out).To(ContainSubstring(`os_release_indexer_records_skipped_total{source="linux"} 1`))
		Expect(out).To(ContainSubstring(`os_release_indexer_batches_total{source="linux"} 2`))
		Expect(out).To(ContainSubstring(`os_release_indexer_bulk_retries_total{source="linux"} 1`))
		Expect(out).To(ContainSubstring(`os_release_indexer_runs_total{source="linux"} 1`))
	})

	It("should write the metrics to a file", func() {
		file := filepath.Join(GinkgoT().TempDir(), "indexer.prom")
		Expect(m.WriteFile(file)).To(Succeed())

		data, err := os.ReadFile(file)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("os_release_indexer_runs_total"))

		entries, err := os.ReadDir(filepath.Dir(file))
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})
})
