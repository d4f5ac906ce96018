// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package macos

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/shipper"
	"github.com/gardener/os-release-indexer/pkg/sources"
	"github.com/gardener/os-release-indexer/pkg/version"
)

// OS is the value of the os field of macOS documents.
const OS = "macos"

// DefaultReleaseInfoURL is the endoflife.date product api of macOS.
const DefaultReleaseInfoURL = "https://endoflife.date/api/v1/products/macos/"

// Release is the latest version of a maintained macOS release.
type Release struct {
	// Codename is the lowercased codename like "sequoia".
	Codename string
	Version  string
}

type productResponse struct {
	Result struct {
		Releases []productRelease `json:"releases"`
	} `json:"result"`
}

type productRelease struct {
	Name         string `json:"name"`
	Codename     string `json:"codename"`
	IsMaintained bool   `json:"isMaintained"`
	Latest       *struct {
		Name string `json:"name"`
	} `json:"latest"`
}

// ParseReleases reads the maintained releases of an endoflife.date product response.
// The first release of a codename wins and the order of the response is kept.
func ParseReleases(data []byte) ([]Release, error) {
	res := &productResponse{}
	if err := json.Unmarshal(data, res); err != nil {
		return nil, errors.Wrap(err, "unable to parse macOS release information")
	}

	seen := map[string]bool{}
	releases := make([]Release, 0)
	for _, r := range res.Result.Releases {
		if !r.IsMaintained || r.Latest == nil {
			continue
		}
		codename := strings.ToLower(strings.TrimSpace(r.Codename))
		latest := strings.TrimSpace(r.Latest.Name)
		if codename == "" || latest == "" || seen[codename] {
			continue
		}
		seen[codename] = true
		releases = append(releases, Release{Codename: codename, Version: latest})
	}
	return releases, nil
}

// Mapping returns the document mapping of macOS releases.
// All documents of a run share the same timestamp.
func Mapping(now time.Time, source string) shipper.Mapping[Release] {
	ts := sources.Timestamp(now)
	return shipper.Mapping[Release]{
		Identity: func(r Release) (string, bool) {
			id := strings.ToLower(strings.TrimSpace(r.Codename))
			return id, id != ""
		},
		Document: func(r Release) map[string]interface{} {
			v := version.Parse(r.Version)
			return map[string]interface{}{
				"codename":       strings.ToLower(strings.TrimSpace(r.Codename)),
				"latest_version": strings.TrimSpace(r.Version),
				"major":          v.Major,
				"minor":          v.Minor,
				"patch":          v.Patch,
				"os":             OS,
				"source":         source,
				"updated_at":     ts,
				"@timestamp":     ts,
			}
		},
	}
}
