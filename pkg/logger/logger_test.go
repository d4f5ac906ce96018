// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package logger_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	flag "github.com/spf13/pflag"

	"github.com/gardener/os-release-indexer/pkg/logger"
)

var _ = Describe("logger", func() {
	It("should create a logger with the configured verbosity", func() {
		log, err := logger.New(&logger.Config{Verbosity: 3})
		Expect(err).ToNot(HaveOccurred())
		Expect(log.V(3).Enabled()).To(BeTrue())
		Expect(log.V(4).Enabled()).To(BeFalse())
	})

	It("should read the configuration from flags", func() {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		logger.InitFlags(fs)
		Expect(fs.Parse([]string{"--dev", "-v", "5", "--log-format", "json"})).To(Succeed())

		log, err := logger.New(nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(log.V(5).Enabled()).To(BeTrue())
	})

	It("should write to the configured output", func() {
		file := filepath.Join(GinkgoT().TempDir(), "indexer.log")
		log, err := logger.New(&logger.Config{Format: logger.FormatJSON, OutputPaths: []string{file}})
		Expect(err).ToNot(HaveOccurred())
		log.Info("Upserted 3 doc(s)", "index", "releases")

		data, err := os.ReadFile(file)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"Upserted 3 doc(s)"`))
		Expect(string(data)).To(ContainSubstring(`"index":"releases"`))
	})

	It("should reject unknown formats", func() {
		_, err := logger.New(&logger.Config{Format: "xml"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("StepSummary", func() {
	It("should append to the summary file", func() {
		file := filepath.Join(GinkgoT().TempDir(), "summary.md")
		s := logger.NewStepSummary(file)

		Expect(s.Replace("| a |")).To(Succeed())
		Expect(s.Post("| b |")).To(Succeed())

		data, err := os.ReadFile(file)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("| a |\n| b |\n"))
	})

	It("should discard messages without file", func() {
		s := logger.NewStepSummary("")
		Expect(s.Enabled()).To(BeFalse())
		Expect(s.Post("| a |")).To(Succeed())
	})
})
