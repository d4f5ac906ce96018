// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package windows

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/gardener/os-release-indexer/pkg/shipper"
	"github.com/gardener/os-release-indexer/pkg/sources"
	"github.com/gardener/os-release-indexer/pkg/util"
	"github.com/gardener/os-release-indexer/pkg/version"
)

// OS is the value of the os field of windows documents.
const OS = "windows11"

// MinBuildPrefix is the first build of Windows 11.
const MinBuildPrefix = 22000

// DefaultReleaseInfoURL is the Windows 11 release information page.
const DefaultReleaseInfoURL = "https://learn.microsoft.com/en-us/windows/release-health/windows11-release-information"

// buildCell matches table cells like "26100.4946".
var buildCell = regexp.MustCompile(`^(\d{5})\.(\S+)$`)

// Build is the latest update revision of a build.
type Build struct {
	Prefix int
	UBR    int
}

// String returns the full build number like "26100.4946".
func (b Build) String() string {
	return fmt.Sprintf("%d.%d", b.Prefix, b.UBR)
}

func (b Build) triple() version.Triple {
	return version.Triple{Major: b.Prefix, Minor: b.UBR}
}

// ParseBuilds reads all os builds from the table cells of the Windows 11 release information page
// and returns the latest revision per build ordered by build.
// Builds lower than minPrefix are ignored. Cells that look like a build but cannot be parsed are
// returned as error together with all valid builds.
func ParseBuilds(page []byte, minPrefix int) ([]Build, error) {
	var (
		allErrs *multierror.Error
		latest  = map[int]Build{}
		inCell  bool
		cell    strings.Builder
	)

	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			builds := make([]Build, 0, len(latest))
			for _, b := range latest {
				builds = append(builds, b)
			}
			sort.Slice(builds, func(i, j int) bool {
				return builds[i].Prefix < builds[j].Prefix
			})
			return builds, util.ReturnMultiError(allErrs)
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "td" {
				inCell = true
				cell.Reset()
			}
		case html.TextToken:
			if inCell {
				cell.Write(z.Text())
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) != "td" || !inCell {
				continue
			}
			inCell = false

			b, ok, err := parseCell(cell.String())
			if err != nil {
				allErrs = multierror.Append(allErrs, err)
				continue
			}
			if !ok || b.Prefix < minPrefix {
				continue
			}
			if cur, found := latest[b.Prefix]; !found || b.triple().Compare(cur.triple()) > 0 {
				latest[b.Prefix] = b
			}
		}
	}
}

func parseCell(text string) (Build, bool, error) {
	text = strings.TrimSpace(text)
	m := buildCell.FindStringSubmatch(text)
	if m == nil {
		return Build{}, false, nil
	}
	prefix, err := strconv.Atoi(m[1])
	if err != nil {
		return Build{}, false, errors.Wrapf(err, "invalid build %q", text)
	}
	ubr, err := strconv.Atoi(m[2])
	if err != nil || ubr < 0 {
		return Build{}, false, errors.Errorf("invalid update revision in build %q", text)
	}
	return Build{Prefix: prefix, UBR: ubr}, true, nil
}

// Mapping returns the document mapping of windows builds.
// All documents of a run share the same timestamp.
func Mapping(now time.Time, source string) shipper.Mapping[Build] {
	ts := sources.Timestamp(now)
	return shipper.Mapping[Build]{
		Identity: func(b Build) (string, bool) {
			if b.Prefix <= 0 {
				return "", false
			}
			return strconv.Itoa(b.Prefix), true
		},
		Document: func(b Build) map[string]interface{} {
			return map[string]interface{}{
				"build_prefix": b.Prefix,
				"latest_ubr":   b.UBR,
				"latest_build": b.String(),
				"os":           OS,
				"source":       source,
				"updated_at":   ts,
				"@timestamp":   ts,
			}
		},
	}
}
