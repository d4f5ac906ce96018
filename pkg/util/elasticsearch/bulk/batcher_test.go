// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package bulk_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch/bulk"
)

var _ = Describe("Batcher", func() {

	It("should fall back to the default size", func() {
		Expect(bulk.NewBatcher(0).Size()).To(Equal(bulk.DefaultBatchSize))
		Expect(bulk.NewBatcher(-3).Size()).To(Equal(bulk.DefaultBatchSize))
	})

	DescribeTable("number of flushes",
		func(records, size, expectedFlushes int, lastBatch int) {
			b := bulk.NewBatcher(size)
			flushes := 0
			last := 0
			for i := 0; i < records; i++ {
				b.Append(bulk.NewUpsert("i", fmt.Sprintf("%d", i), nil))
				if b.ShouldFlush() {
					last = len(b.Drain())
					flushes++
				}
			}
			if b.Len() > 0 {
				last = len(b.Drain())
				flushes++
			}
			Expect(flushes).To(Equal(expectedFlushes))
			Expect(last).To(Equal(lastBatch))
		},
		Entry("no records", 0, 500, 0, 0),
		Entry("less than one batch", 3, 500, 1, 3),
		Entry("exactly one batch", 500, 500, 1, 500),
		Entry("one record more than a batch", 501, 500, 2, 1),
		Entry("batch size of one", 4, 1, 4, 1),
		Entry("many batches", 1234, 100, 13, 34),
	)

	It("should start a new batch after draining", func() {
		b := bulk.NewBatcher(2)
		b.Append(bulk.NewUpsert("i", "a", nil))
		b.Append(bulk.NewUpsert("i", "b", nil))
		Expect(b.ShouldFlush()).To(BeTrue())

		batch := b.Drain()
		Expect(batch).To(HaveLen(2))
		Expect(b.Len()).To(Equal(0))
		Expect(b.ShouldFlush()).To(BeFalse())

		b.Append(bulk.NewUpsert("i", "c", nil))
		Expect(batch[0].Metadata.ID).To(Equal("a"))
		Expect(batch[1].Metadata.ID).To(Equal("b"))
	})
})
