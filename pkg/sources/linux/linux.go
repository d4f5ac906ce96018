// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/shipper"
	"github.com/gardener/os-release-indexer/pkg/sources"
	"github.com/gardener/os-release-indexer/pkg/version"
)

// UnknownDistro is used if the distribution can neither be inferred nor is configured.
const UnknownDistro = "unknown"

var distroFromSource = regexp.MustCompile(`/distribution/([^/?#]+)`)

// Payload is the latest version per series of a distribution, e.g.
//
//	{
//	  "source": "http://127.0.0.1:8000/api/distribution/ubuntu",
//	  "series": {
//	    "24": {"version": "24.04.3", "text": "...", "url": "..."}
//	  }
//	}
type Payload struct {
	Source string                 `json:"source"`
	Series map[string]*SeriesInfo `json:"series"`
}

// SeriesInfo is the latest release of one series.
// Numbers and booleans are accepted in place of strings.
type SeriesInfo struct {
	Version string
	Text    *string
	URL     *string

	// malformed is set if the series is not a json object.
	malformed bool
}

// UnmarshalJSON reads a series leniently so that a single odd field does not reject the payload.
func (s *SeriesInfo) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SeriesInfo{}
	if raw == nil {
		return nil
	}
	fields, ok := raw.(map[string]interface{})
	if !ok {
		s.malformed = true
		return nil
	}
	if v, ok := stringValue(fields["version"]); ok {
		s.Version = v
	}
	if v, ok := stringValue(fields["text"]); ok {
		s.Text = &v
	}
	if v, ok := stringValue(fields["url"]); ok {
		s.URL = &v
	}
	return nil
}

// stringValue converts a decoded json value to its string form. Null yields false.
func stringValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		return string(data), true
	}
}

// Record is the latest release of one series of a distribution.
type Record struct {
	Distro          string
	Series          int
	Version         string
	Text            *string
	AnnouncementURL *string
	Source          string
}

// Decode parses a series payload.
func Decode(data []byte) (*Payload, error) {
	p := &Payload{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, errors.Wrap(err, "unable to parse linux series payload")
	}
	return p, nil
}

// InferDistro returns the lowercased fallback if set, otherwise the distribution
// is read from a source like ".../api/distribution/ubuntu".
func InferDistro(source, fallback string) string {
	if f := strings.TrimSpace(fallback); f != "" {
		return strings.ToLower(f)
	}
	m := distroFromSource.FindStringSubmatch(strings.ToLower(strings.TrimSpace(source)))
	if m == nil {
		return UnknownDistro
	}
	return m[1]
}

// Records returns one record per series ordered by series.
// Series whose key is not an integer are skipped.
func Records(log logr.Logger, p *Payload, distro string) []Record {
	if p == nil {
		return nil
	}
	distro = InferDistro(p.Source, distro)

	records := make([]Record, 0, len(p.Series))
	for key, info := range p.Series {
		series, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			log.V(3).Info("skipping series with invalid key", "distro", distro, "series", key)
			continue
		}
		if info == nil {
			info = &SeriesInfo{}
		}
		if info.malformed {
			log.Info("skipping series that is not an object", "distro", distro, "series", key)
			continue
		}
		records = append(records, Record{
			Distro:          distro,
			Series:          series,
			Version:         strings.TrimSpace(info.Version),
			Text:            info.Text,
			AnnouncementURL: info.URL,
			Source:          p.Source,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Series < records[j].Series
	})
	return records
}

// Mapping returns the document mapping of linux records.
// All documents of a run share the same timestamp.
func Mapping(now time.Time) shipper.Mapping[Record] {
	ts := sources.Timestamp(now)
	return shipper.Mapping[Record]{
		Identity: func(r Record) (string, bool) {
			if r.Distro == "" {
				return "", false
			}
			return r.Distro + "-" + strconv.Itoa(r.Series), true
		},
		Document: func(r Record) map[string]interface{} {
			v := version.Parse(r.Version)
			var source interface{}
			if r.Source != "" {
				source = r.Source
			}
			return map[string]interface{}{
				"distro":           r.Distro,
				"series":           r.Series,
				"latest_version":   r.Version,
				"major":            v.Major,
				"minor":            v.Minor,
				"patch":            v.Patch,
				"text":             sources.StringOrNil(r.Text),
				"announcement_url": sources.StringOrNil(r.AnnouncementURL),
				"source":           source,
				"updated_at":       ts,
				"@timestamp":       ts,
			}
		},
	}
}
