// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package bulk_test

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch/bulk"
)

func upserts(n int) []bulk.Action {
	actions := make([]bulk.Action, n)
	for i := range actions {
		actions[i] = bulk.NewUpsert("os-releases", fmt.Sprintf("id-%d", i), nil)
	}
	return actions
}

func okItem(id string) string {
	return fmt.Sprintf(`{"update":{"_index":"os-releases","_id":%q,"status":200,"result":"noop"}}`, id)
}

func errItem(id string) string {
	return fmt.Sprintf(`{"update":{"_index":"os-releases","_id":%q,"status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse"}}}`, id)
}

var _ = Describe("Aggregate", func() {

	It("should record the processing time of a successful batch", func() {
		res, err := bulk.Aggregate(upserts(3), []byte(`{"took":17,"errors":false,"items":[`+okItem("id-0")+`,`+okItem("id-1")+`,`+okItem("id-2")+`]}`))
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Attempted).To(Equal(3))
		Expect(res.Failed).To(Equal(0))
		Expect(res.Took).To(Equal(17))
		Expect(res.Failures).To(BeEmpty())
	})

	It("should attribute item errors by position", func() {
		body := `{"took":5,"errors":true,"items":[` + okItem("id-0") + `,` + errItem("id-1") + `,` + okItem("id-2") + `]}`
		res, err := bulk.Aggregate(upserts(3), []byte(body))
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Attempted).To(Equal(3))
		Expect(res.Failed).To(Equal(1))
		Expect(res.Failures).To(HaveLen(1))

		f := res.Failures[0]
		Expect(f.Position).To(Equal(1))
		Expect(f.Operation).To(Equal(bulk.OpUpdate))
		Expect(f.Status).To(Equal(400))
		Expect(f.ID).To(Equal("id-1"))
		Expect(f.Error).To(ContainSubstring("mapper_parsing_exception"))
	})

	It("should count all failures but report only the first ones", func() {
		items := make([]string, 25)
		for i := range items {
			items[i] = errItem(fmt.Sprintf("id-%d", i))
		}
		res, err := bulk.Aggregate(upserts(25), []byte(`{"took":1,"errors":true,"items":[`+strings.Join(items, ",")+`]}`))
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Failed).To(Equal(25))
		Expect(res.Failures).To(HaveLen(bulk.MaxReportedFailures))
		Expect(res.Failures[bulk.MaxReportedFailures-1].Position).To(Equal(bulk.MaxReportedFailures - 1))
	})

	It("should use the id of the batch if the item has none", func() {
		item := `{"update":{"status":429,"error":{"type":"es_rejected_execution_exception"}}}`
		res, err := bulk.Aggregate(upserts(1), []byte(`{"took":1,"errors":true,"items":[`+item+`]}`))
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Failures[0].ID).To(Equal("id-0"))
	})

	It("should not count items with a null error", func() {
		item := `{"update":{"_id":"id-0","status":200,"error":null}}`
		res, err := bulk.Aggregate(upserts(2), []byte(`{"took":1,"errors":true,"items":[`+item+`,`+errItem("id-1")+`]}`))
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Failed).To(Equal(1))
	})

	DescribeTable("empty error values",
		func(value string) {
			item := `{"update":{"_id":"id-0","status":200,"error":` + value + `}}`
			res, err := bulk.Aggregate(upserts(2), []byte(`{"took":1,"errors":true,"items":[`+item+`,`+errItem("id-1")+`]}`))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Failed).To(Equal(1))
			Expect(res.Failures[0].ID).To(Equal("id-1"))
		},
		Entry("empty object", `{}`),
		Entry("empty string", `""`),
		Entry("false", `false`),
		Entry("empty list", `[]`),
	)

	It("should count a plain error message as failure", func() {
		item := `{"update":{"_id":"id-0","status":500,"error":"shard unavailable"}}`
		res, err := bulk.Aggregate(upserts(1), []byte(`{"took":1,"errors":true,"items":[`+item+`]}`))
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Failed).To(Equal(1))
	})

	It("should mark the whole batch failed if errors are reported without items", func() {
		res, err := bulk.Aggregate(upserts(3), []byte(`{"took":1,"errors":true}`))
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Failed).To(Equal(3))
		Expect(res.Failures).To(HaveLen(3))
	})

	It("should fail on an invalid response", func() {
		res, err := bulk.Aggregate(upserts(2), []byte(`<html>`))
		Expect(err).To(HaveOccurred())
		Expect(res.Attempted).To(Equal(2))
	})
})
