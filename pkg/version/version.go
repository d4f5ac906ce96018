// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"
)

// leadingVersion matches the leading major[.minor[.patch]] of a release string.
// Anything after the match (pre-release tags, build numbers in parentheses, ...) is ignored.
var leadingVersion = regexp.MustCompile(`^\s*(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// Triple is the numeric major.minor.patch of an upstream release string.
type Triple struct {
	Major int
	Minor int
	Patch int
}

// Parse extracts the leading numeric components of a version string like "24.04.3",
// "15.7" or "26.0.1 (25A362)". Missing components default to 0 and
// strings that do not start with a number yield 0.0.0.
func Parse(v string) Triple {
	m := leadingVersion.FindStringSubmatch(v)
	if m == nil {
		return Triple{}
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		// out of range for int
		return Triple{}
	}
	return Triple{
		Major: major,
		Minor: atoiOrZero(m[2]),
		Patch: atoiOrZero(m[3]),
	}
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// IsZero reports whether no numeric component could be parsed.
func (t Triple) IsZero() bool {
	return t == Triple{}
}

// Semver returns the triple as semantic version to compare releases.
func (t Triple) Semver() *semver.Version {
	return semver.New(uint64(t.Major), uint64(t.Minor), uint64(t.Patch), "", "")
}

// Compare returns -1, 0 or 1 if t is lower, equal or greater than o.
func (t Triple) Compare(o Triple) int {
	return t.Semver().Compare(o.Semver())
}

func (t Triple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Patch)
}
