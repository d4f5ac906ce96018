// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package httpcache

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// maxAgeTransport marks successful GET responses as cacheable for a fixed time.
// Release information pages are usually served without cache headers.
// Responses that carry a Cache-Control or Pragma header are not modified.
type maxAgeTransport struct {
	delegate http.RoundTripper
	maxAge   time.Duration
}

var _ http.RoundTripper = &maxAgeTransport{}

func (c *maxAgeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := c.delegate.RoundTrip(req)
	if err != nil {
		return res, err
	}
	if c.maxAge <= 0 || req.Method != http.MethodGet || res.StatusCode != http.StatusOK {
		return res, nil
	}
	// upstream cache directives are kept as they are
	if strings.TrimSpace(res.Header.Get("Cache-Control")) != "" || res.Header.Get("Pragma") != "" {
		return res, nil
	}
	res.Header.Set("Cache-Control", fmt.Sprintf("max-age=%d", int(c.maxAge.Seconds())))
	res.Header.Del("Expires")
	res.Header.Del("Pragma")
	return res, nil
}
