// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package s3_test

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gardener/os-release-indexer/pkg/util/s3"
	mock_s3 "github.com/gardener/os-release-indexer/pkg/util/s3/mocks"
)

var _ = Describe("archive", func() {
	It("should build keys per source and day", func() {
		t := time.Date(2025, 9, 1, 23, 30, 0, 0, time.FixedZone("PDT", -7*60*60))
		Expect(s3.ObjectKey("linux", "abc", t, ".json")).To(Equal("linux/2025-09-02/abc.json"))
	})

	It("should store and load snapshots", func() {
		client := mock_s3.NewMemoryClient()
		a := s3.NewArchive(logr.Discard(), client, "snapshots")

		Expect(a.Store(context.Background(), "macos/2025-09-01/run.json", []byte(`{"result":{}}`), "application/json")).To(Succeed())
		Expect(client.Objects).To(HaveKeyWithValue("snapshots/macos/2025-09-01/run.json", mock_s3.StoredObject{
			Data:        []byte(`{"result":{}}`),
			ContentType: "application/json",
		}))

		data, err := a.Load("macos/2025-09-01/run.json")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal(`{"result":{}}`))
	})

	It("should store snapshots below the prefix", func() {
		client := mock_s3.NewMemoryClient()
		a := s3.NewArchive(logr.Discard(), client, "snapshots").WithPrefix("/indexer/")

		Expect(a.Store(context.Background(), "linux/2025-09-01/run.json", []byte(`[]`), "application/json")).To(Succeed())
		Expect(client.Objects).To(HaveKey("snapshots/indexer/linux/2025-09-01/run.json"))
		Expect(a.Location("linux/2025-09-01/run.json")).To(Equal("s3://snapshots/indexer/linux/2025-09-01/run.json"))

		data, err := a.Load("linux/2025-09-01/run.json")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal(`[]`))
	})

	It("should fail to load unknown snapshots", func() {
		a := s3.NewArchive(logr.Discard(), mock_s3.NewMemoryClient(), "snapshots")
		_, err := a.Load("missing")
		Expect(err).To(HaveOccurred())
	})
})
