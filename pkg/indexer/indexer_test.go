// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package indexer_test

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/gardener/os-release-indexer/pkg/apis/config"
	"github.com/gardener/os-release-indexer/pkg/indexer"
	"github.com/gardener/os-release-indexer/pkg/sources/windows"
	"github.com/gardener/os-release-indexer/pkg/util/elasticsearch"
	mock_elasticsearch "github.com/gardener/os-release-indexer/pkg/util/elasticsearch/mocks"
	"github.com/gardener/os-release-indexer/pkg/util/s3"
	mock_s3 "github.com/gardener/os-release-indexer/pkg/util/s3/mocks"
)

var _ = Describe("Indexer", func() {
	var (
		ctx   context.Context
		cfg   config.Configuration
		out   *bytes.Buffer
		mem   *mock_s3.MemoryClient
		now   = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
		newIx func(opts ...indexer.Option) *indexer.Indexer
	)

	BeforeEach(func() {
		ctx = context.Background()
		out = &bytes.Buffer{}
		mem = mock_s3.NewMemoryClient()
		cfg = config.Configuration{
			ElasticSearch: config.ElasticSearch{Index: "os_latest_version"},
			Shipping:      config.Shipping{DryRun: true, BatchSize: 2},
		}
		config.SetDefaults(&cfg)

		newIx = func(opts ...indexer.Option) *indexer.Indexer {
			opts = append([]indexer.Option{
				indexer.WithOutput(out),
				indexer.WithNow(func() time.Time { return now }),
				indexer.WithRunID("run-1"),
				indexer.WithHTTPClient(http.DefaultClient),
				indexer.WithArchive(s3.NewArchive(logr.Discard(), mem, "snapshots")),
			}, opts...)
			ix, err := indexer.New(logr.Discard(), cfg, opts...)
			Expect(err).ToNot(HaveOccurred())
			return ix
		}
	})

	It("should ship all linux series of a payload", func() {
		ix := newIx()
		Expect(ix.RunID()).To(Equal("run-1"))

		tally, err := ix.Linux(ctx, indexer.Input{Location: "../sources/linux/testdata/ubuntu.json"}, "")
		Expect(err).ToNot(HaveOccurred())
		Expect(tally.Attempted).To(Equal(3))
		Expect(tally.Batches).To(Equal(2))
		Expect(out.String()).To(ContainSubstring(`{"update":{"_index":"os_latest_version","_id":"ubuntu-22"}}`))
		Expect(out.String()).To(ContainSubstring(`"@timestamp":"2025-09-01T10:00:00Z"`))
	})

	It("should archive the fetched upstream data", func() {
		ix := newIx()
		_, err := ix.Linux(ctx, indexer.Input{Location: "../sources/linux/testdata/ubuntu.json"}, "")
		Expect(err).ToNot(HaveOccurred())

		Expect(mem.Objects).To(HaveLen(1))
		for key, obj := range mem.Objects {
			Expect(key).To(MatchRegexp(`^snapshots/linux/\d{4}-\d{2}-\d{2}/run-1\.json$`))
			Expect(obj.ContentType).To(Equal("application/json"))
			Expect(string(obj.Data)).To(ContainSubstring("Noble Numbat"))
		}
	})

	It("should replay an archived snapshot", func() {
		data, err := os.ReadFile("../sources/macos/testdata/macos.json")
		Expect(err).ToNot(HaveOccurred())
		mem.Objects["snapshots/macos/2025-09-01/run-0.json"] = mock_s3.StoredObject{Data: data}

		ix := newIx()
		tally, err := ix.MacOS(ctx, indexer.Input{Location: "https://endoflife.date/api/v1/products/macos/", ArchiveKey: "macos/2025-09-01/run-0.json"})
		Expect(err).ToNot(HaveOccurred())
		Expect(tally.Attempted).To(Equal(3))
		Expect(out.String()).To(ContainSubstring(`"_id":"tahoe"`))
		Expect(out.String()).To(ContainSubstring(`"source":"https://endoflife.date/api/v1/products/macos/"`))
	})

	It("should fail to replay without an archive", func() {
		ix, err := indexer.New(logr.Discard(), cfg, indexer.WithOutput(out), indexer.WithHTTPClient(http.DefaultClient))
		Expect(err).ToNot(HaveOccurred())
		_, err = ix.Replay("macos/x.json")
		Expect(err).To(HaveOccurred())
	})

	It("should ship windows builds", func() {
		ix := newIx()
		tally, err := ix.Windows(ctx, indexer.Input{Location: "../sources/windows/testdata/release-information.html"}, windows.MinBuildPrefix)
		Expect(err).ToNot(HaveOccurred())
		Expect(tally.Attempted).To(Equal(2))
		Expect(out.String()).To(ContainSubstring(`"latest_build":"26100.4946"`))
	})

	It("should ingest a bulk file into the configured index", func() {
		file := filepath.Join(GinkgoT().TempDir(), "bulk.ndjson")
		Expect(os.WriteFile(file, []byte(strings.Join([]string{
			`{"index":{"_id":"a"}}`,
			`{"name":"a"}`,
			`{"delete":{"_index":"other","_id":"b"}}`,
		}, "\n")), 0600)).To(Succeed())

		ix := newIx()
		tally, err := ix.Ingest(ctx, indexer.Input{Location: file})
		Expect(err).ToNot(HaveOccurred())
		Expect(tally.Attempted).To(Equal(2))
		Expect(tally.Batches).To(Equal(1))
		Expect(out.String()).To(ContainSubstring(`{"index":{"_index":"os_latest_version","_id":"a"}}`))
	})

	It("should require an upstream location", func() {
		ix := newIx()
		_, err := ix.MacOS(ctx, indexer.Input{})
		Expect(err).To(HaveOccurred())
	})

	Context("reports", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
			cfg.Observability = config.Observability{
				Table:       true,
				MetricsFile: filepath.Join(dir, "indexer.prom"),
			}
		})

		It("should render the summary table and write the metrics", func() {
			ix := newIx()
			_, err := ix.Linux(ctx, indexer.Input{Location: "../sources/linux/testdata/ubuntu.json"}, "")
			Expect(err).ToNot(HaveOccurred())
			Expect(out.String()).To(ContainSubstring("os_latest_version"))

			data, err := os.ReadFile(cfg.Observability.MetricsFile)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`os_release_indexer_actions_attempted_total{source="linux"} 3`))
			Expect(string(data)).To(ContainSubstring(`os_release_indexer_runs_total{source="linux"} 1`))
		})

		It("should write the metrics and return the error of a failed run", func() {
			ctrl := gomock.NewController(GinkgoT())
			client := mock_elasticsearch.NewMockClient(ctrl)
			client.EXPECT().Bulk(gomock.Any(), gomock.Any()).Return(nil, &elasticsearch.StatusError{StatusCode: http.StatusBadRequest, Attempts: 1})

			ix := newIx(indexer.WithClient(client))
			tally, err := ix.Linux(ctx, indexer.Input{Location: "../sources/linux/testdata/ubuntu.json"}, "")
			Expect(err).To(HaveOccurred())
			Expect(tally.Attempted).To(Equal(0))
			Expect(cfg.Observability.MetricsFile).To(BeARegularFile())
		})
	})
})
