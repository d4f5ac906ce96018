// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package linux_test

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	json "github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/gardener/os-release-indexer/pkg/shipper"
	"github.com/gardener/os-release-indexer/pkg/sources/linux"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch/bulk"
	mock_elasticsearch "github.com/gardener/os-release-indexer/pkg/util/elasticsearch/mocks"
)

var now = time.Date(2025, 9, 1, 12, 30, 0, 0, time.FixedZone("CEST", 2*60*60))

var _ = Describe("linux", func() {

	Context("InferDistro", func() {
		It("should prefer the configured distribution", func() {
			Expect(linux.InferDistro("http://x/api/distribution/ubuntu", " Mint ")).To(Equal("mint"))
		})

		It("should read the distribution from the source", func() {
			Expect(linux.InferDistro("http://x/api/distribution/Debian?page=1", "")).To(Equal("debian"))
		})

		It("should fall back to unknown", func() {
			Expect(linux.InferDistro("", "")).To(Equal(linux.UnknownDistro))
		})
	})

	Context("Records", func() {
		It("should return one record per integer series ordered by series", func() {
			data, err := os.ReadFile("./testdata/ubuntu.json")
			Expect(err).ToNot(HaveOccurred())
			p, err := linux.Decode(data)
			Expect(err).ToNot(HaveOccurred())

			records := linux.Records(logr.Discard(), p, "")
			Expect(records).To(HaveLen(3))
			Expect(records[0].Series).To(Equal(22))
			Expect(records[0].Text).To(BeNil())
			Expect(records[2].Series).To(Equal(25))
			Expect(records[2].Distro).To(Equal("ubuntu"))
		})

		It("should convert non-string fields and keep the other series", func() {
			p, err := linux.Decode([]byte(`{
				"source": "http://127.0.0.1:8000/api/distribution/ubuntu",
				"series": {
					"24": {"version": "24.04.3", "text": "Noble Numbat", "url": "https://ubuntu.com/24"},
					"25": {"version": 25.10, "text": 42, "url": null},
					"26": "not an object"
				}
			}`))
			Expect(err).ToNot(HaveOccurred())

			records := linux.Records(logr.Discard(), p, "")
			Expect(records).To(HaveLen(2))
			Expect(records[0].Version).To(Equal("24.04.3"))
			Expect(records[1].Series).To(Equal(25))
			Expect(records[1].Version).To(Equal("25.1"))
			Expect(records[1].Text).ToNot(BeNil())
			Expect(*records[1].Text).To(Equal("42"))
			Expect(records[1].AnnouncementURL).To(BeNil())
		})

		It("should fail on invalid payloads", func() {
			_, err := linux.Decode([]byte(`{"series": []}`))
			Expect(err).To(HaveOccurred())
		})

		It("should return nothing for an empty payload", func() {
			p, err := linux.Decode([]byte(`{"source": "x"}`))
			Expect(err).ToNot(HaveOccurred())
			Expect(linux.Records(logr.Discard(), p, "")).To(BeEmpty())
		})
	})

	Context("Mapping", func() {
		It("should build the document of a series", func() {
			text := "t"
			url := "u"
			m := linux.Mapping(now)
			r := linux.Record{Distro: "ubuntu", Series: 24, Version: "24.04.3", Text: &text, AnnouncementURL: &url, Source: "s"}

			id, ok := m.Identity(r)
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal("ubuntu-24"))

			doc := m.Document(r)
			Expect(doc).To(HaveKeyWithValue("distro", "ubuntu"))
			Expect(doc).To(HaveKeyWithValue("series", 24))
			Expect(doc).To(HaveKeyWithValue("latest_version", "24.04.3"))
			Expect(doc).To(HaveKeyWithValue("major", 24))
			Expect(doc).To(HaveKeyWithValue("minor", 4))
			Expect(doc).To(HaveKeyWithValue("patch", 3))
			Expect(doc).To(HaveKeyWithValue("text", "t"))
			Expect(doc).To(HaveKeyWithValue("announcement_url", "u"))
			Expect(doc).To(HaveKeyWithValue("source", "s"))
			Expect(doc).To(HaveKeyWithValue("updated_at", "2025-09-01T10:30:00Z"))
			Expect(doc["@timestamp"]).To(Equal(doc["updated_at"]))
		})

		It("should write null for missing optional fields", func() {
			doc := linux.Mapping(now).Document(linux.Record{Distro: "ubuntu", Series: 22, Version: "beta"})
			Expect(doc).To(HaveKeyWithValue("text", BeNil()))
			Expect(doc).To(HaveKeyWithValue("announcement_url", BeNil()))
			Expect(doc).To(HaveKeyWithValue("source", BeNil()))
			Expect(doc).To(HaveKeyWithValue("major", 0))
		})
	})

	It("should ship a series payload end to end", func() {
		ctrl := gomock.NewController(GinkgoT())
		defer ctrl.Finish()
		client := mock_elasticsearch.NewMockClient(ctrl)

		var sent []bulk.Action
		client.EXPECT().Bulk(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, data []byte) ([]byte, error) {
			var err error
			sent, err = bulk.Parse(logr.Discard(), "", data)
			Expect(err).ToNot(HaveOccurred())
			Expect(strings.Count(string(data), "\n")).To(Equal(2))
			Expect(string(data)).To(ContainSubstring(`"doc_as_upsert":true`))
			return []byte(`{"took":2,"errors":false,"items":[{"update":{"_id":"ubuntu-24","status":201,"result":"created"}}]}`), nil
		})

		p, err := linux.Decode([]byte(`{"series": {"24": {"version": "24.04.3", "text": "t", "url": "u"}}}`))
		Expect(err).ToNot(HaveOccurred())
		records := linux.Records(logr.Discard(), p, "ubuntu")

		s := shipper.New(logr.Discard(), client, shipper.Config{Index: "linux_latest_version", BatchSize: 500})
		tally, err := shipper.Ship(context.Background(), s, records, linux.Mapping(now))
		Expect(err).ToNot(HaveOccurred())
		Expect(tally).To(Equal(shipper.Tally{Attempted: 1, Batches: 1}))

		Expect(sent).To(HaveLen(1))
		Expect(sent[0].Operation).To(Equal(bulk.OpUpdate))
		Expect(sent[0].Metadata).To(Equal(bulk.Metadata{Index: "linux_latest_version", ID: "ubuntu-24"}))
		Expect(string(sent[0].Body.(json.RawMessage))).To(ContainSubstring(`"major":24`))
		Expect(string(sent[0].Body.(json.RawMessage))).To(ContainSubstring(`"minor":4`))
		Expect(string(sent[0].Body.(json.RawMessage))).To(ContainSubstring(`"patch":3`))
		Expect(string(sent[0].Body.(json.RawMessage))).To(ContainSubstring(`"latest_version":"24.04.3"`))
	})
})
