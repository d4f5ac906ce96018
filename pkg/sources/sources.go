// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// MaxResponseSize is the max size of an upstream response.
const MaxResponseSize = 32 << 20

// Snapshot is the raw upstream data a run is based on.
type Snapshot struct {
	// Location is the url or path the data was read from.
	Location string
	Data     []byte
	// FetchedAt is the time the data was read.
	FetchedAt time.Time
}

// Get reads the document at the given url.
func Get(ctx context.Context, client *http.Client, rawURL, accept string) (*Snapshot, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create request to %s", rawURL)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to fetch %s", rawURL)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetching %s failed with status %s", rawURL, res.Status)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseSize))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read response of %s", rawURL)
	}
	return &Snapshot{Location: rawURL, Data: data, FetchedAt: time.Now()}, nil
}

// Load reads a local file or, if the location is a http(s) url, fetches it.
func Load(ctx context.Context, client *http.Client, location, accept string) (*Snapshot, error) {
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return Get(ctx, client, location, accept)
	}
	data, err := os.ReadFile(filepath.Clean(location))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", location)
	}
	return &Snapshot{Location: location, Data: data, FetchedAt: time.Now()}, nil
}

// Timestamp formats the time of a run as it is written to updated_at and @timestamp.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// StringOrNil returns nil for a nil pointer so that the field is written as json null.
func StringOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
