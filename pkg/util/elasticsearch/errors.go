// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// MaxErrorBodySize is the max number of bytes of a response body that is kept in errors.
const MaxErrorBodySize = 500

// StatusError is returned if elastic search answered with a non 2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
	// Body is the beginning of the response body.
	Body string
	// Attempts is the number of requests that were sent.
	Attempts int
	// RetryAfter is the wait time the server asked for.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s returned status code %d after %d attempt(s) with body %s", e.URL, e.StatusCode, e.Attempts, e.Body)
}

// Transient reports whether the request may succeed if it is sent again later.
func (e *StatusError) Transient() bool {
	return IsTransientStatus(e.StatusCode)
}

// IsTransientStatus is true for rate limiting and server side errors.
func IsTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

// ConnectionError is returned if a request could not be completed, e.g. because of a refused connection or a timeout.
type ConnectionError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("unable to do request to %s after %d attempt(s): %s", e.URL, e.Attempts, e.Err.Error())
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func truncate(body []byte) string {
	if len(body) <= MaxErrorBodySize {
		return string(body)
	}
	return string(body[:MaxErrorBodySize]) + "..."
}

// parseRetryAfter parses the value of a Retry-After header which is either seconds or a http date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if sec, err := strconv.Atoi(value); err == nil {
		if sec < 0 {
			return 0
		}
		return time.Duration(sec) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
