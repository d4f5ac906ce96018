// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package version_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gardener/os-release-indexer/pkg/version"
)

var _ = Describe("version parser", func() {

	DescribeTable("should parse the leading numeric components",
		func(input string, expected version.Triple) {
			Expect(version.Parse(input)).To(Equal(expected))
		},
		Entry("full triple", "24.04.3", version.Triple{Major: 24, Minor: 4, Patch: 3}),
		Entry("major and minor", "25.10", version.Triple{Major: 25, Minor: 10}),
		Entry("major only", "14", version.Triple{Major: 14}),
		Entry("extra components are ignored", "1.2.3.4", version.Triple{Major: 1, Minor: 2, Patch: 3}),
		Entry("pre-release suffix", "26.1-beta2", version.Triple{Major: 26, Minor: 1}),
		Entry("build metadata in parentheses", "15.7.1 (24G231)", version.Triple{Major: 15, Minor: 7, Patch: 1}),
		Entry("leading whitespace", "  22.04.5", version.Triple{Major: 22, Minor: 4, Patch: 5}),
		Entry("trailing dot", "13.", version.Triple{Major: 13}),
	)

	DescribeTable("should return 0.0.0 for malformed input",
		func(input string) {
			v := version.Parse(input)
			Expect(v).To(Equal(version.Triple{}))
			Expect(v.IsZero()).To(BeTrue())
		},
		Entry("empty string", ""),
		Entry("codename", "sequoia"),
		Entry("leading v", "v1.2.3"),
		Entry("leading dot", ".5"),
		Entry("overflowing major", "99999999999999999999999.1"),
	)

	It("should compare triples by semantic version order", func() {
		Expect(version.Parse("15.7.1").Compare(version.Parse("15.10"))).To(Equal(-1))
		Expect(version.Parse("26.0.1").Compare(version.Parse("26.0.1"))).To(Equal(0))
		Expect(version.Parse("26").Compare(version.Parse("25.99.99"))).To(Equal(1))
	})

	It("should format the triple", func() {
		Expect(version.Parse("24.04").String()).To(Equal("24.4.0"))
		Expect(version.Parse("24.04.3").Semver().String()).To(Equal("24.4.3"))
	})
})
