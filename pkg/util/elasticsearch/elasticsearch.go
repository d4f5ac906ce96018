// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/go-logr/logr"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/apis/config"
)

// MaxRetryAfter limits the wait time a server can request with a Retry-After header.
const MaxRetryAfter = time.Minute

// MaxBackoff limits the exponential backoff between two attempts.
const MaxBackoff = 10 * time.Minute

// Client defines an interface to interact with an elastic search instance
type Client interface {
	// Request sends one request and returns the response body of a 2xx response.
	Request(ctx context.Context, httpMethod, path string, payload io.Reader) ([]byte, error)
	// Bulk sends a newline delimited bulk document to the bulk api and returns the response body.
	// Rate limited and failed requests are retried with an exponential backoff.
	Bulk(ctx context.Context, data []byte) ([]byte, error)
}

// RetryEvent describes a failed bulk attempt that is going to be retried.
type RetryEvent struct {
	// Attempt is the number of the failed attempt starting with 1.
	Attempt int
	// Wait is the time until the next attempt.
	Wait time.Duration
	Err  error
}

// Options configure the behavior of bulk requests.
type Options struct {
	Refresh RefreshMode
	// MaxRetries is the max number of attempts of a bulk request. Values lower than 1 mean one attempt.
	MaxRetries int
	// RetryBackoff is the wait time after the first failed attempt. It doubles with every further attempt.
	RetryBackoff time.Duration
	// Timeout of a single http request.
	Timeout time.Duration
	// Compress sends gzip compressed bulk requests.
	Compress bool
	// Transport is the round tripper of the http client. The default transport is used if nil.
	Transport http.RoundTripper
	// OnRetry is called before the client waits for the next attempt.
	OnRetry func(RetryEvent)
}

type client struct {
	*http.Client
	log logr.Logger

	endpoint *url.URL
	apiKey   string
	username string
	password string

	refresh    RefreshMode
	maxRetries int
	backoff    time.Duration
	compress   bool
	onRetry    func(RetryEvent)

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewClient creates a new elastic search client.
// An api key is preferred over basic auth credentials.
func NewClient(log logr.Logger, cfg config.ElasticSearch, opts Options) (Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("elasticsearch endpoint has to be defined")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse elasticsearch endpoint %q", cfg.Endpoint)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("elasticsearch endpoint %q has to be an absolute url", cfg.Endpoint)
	}

	if cfg.APIKey == "" {
		if cfg.Username == "" {
			return nil, errors.New("elasticsearch api key or username has to be defined")
		}
		if cfg.Password == "" {
			return nil, errors.New("elasticsearch password has to be defined")
		}
	}

	maxRetries := opts.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &client{
		Client: &http.Client{
			Transport: opts.Transport,
			Timeout:   opts.Timeout,
		},
		log:        log,
		endpoint:   u,
		apiKey:     cfg.APIKey,
		username:   cfg.Username,
		password:   cfg.Password,
		refresh:    opts.Refresh,
		maxRetries: maxRetries,
		backoff:    opts.RetryBackoff,
		compress:   opts.Compress,
		onRetry:    opts.OnRetry,
		sleep:      sleepWithContext,
		now:        time.Now,
	}, nil
}

func (c *client) Request(ctx context.Context, httpMethod, rawPath string, payload io.Reader) ([]byte, error) {
	res, err := c.do(ctx, httpMethod, c.parseUrlNoEscape(rawPath, nil), payload, "")
	if err != nil {
		setAttempts(err, 1)
	}
	return res, err
}

func (c *client) Bulk(ctx context.Context, data []byte) ([]byte, error) {
	var query url.Values
	if c.refresh != RefreshDisabled {
		query = url.Values{"refresh": []string{string(c.refresh)}}
	}
	esURL := c.parseUrlNoEscape("_bulk", query)

	payload, encoding, err := c.encodePayload(data)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		body, err := c.do(ctx, http.MethodPost, esURL, bytes.NewReader(payload), encoding)
		if err == nil {
			if attempt > 1 {
				c.log.V(3).Info("bulk request succeeded after retry", "attempts", attempt)
			}
			return body, nil
		}
		setAttempts(err, attempt)

		if !c.retryable(ctx, err) || attempt >= c.maxRetries {
			return nil, err
		}

		wait := c.waitTime(attempt, err)
		c.log.Info("bulk request failed, retrying", "attempt", attempt, "maxAttempts", c.maxRetries, "wait", wait.String(), "error", err.Error())
		if c.onRetry != nil {
			c.onRetry(RetryEvent{Attempt: attempt, Wait: wait, Err: err})
		}
		if err := c.sleep(ctx, wait); err != nil {
			return nil, errors.Wrapf(err, "bulk request aborted after %d attempt(s)", attempt)
		}
	}
}

func (c *client) do(ctx context.Context, httpMethod, esURL string, payload io.Reader, encoding string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, httpMethod, esURL, payload)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create request to %s", esURL)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	} else {
		req.SetBasicAuth(c.username, c.password)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/x-ndjson")
	}
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.Do(req)
	if err != nil {
		return nil, &ConnectionError{URL: esURL, Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		errorResponse, _ := io.ReadAll(io.LimitReader(res.Body, MaxErrorBodySize+1))
		return nil, &StatusError{
			URL:        esURL,
			StatusCode: res.StatusCode,
			Body:       truncate(errorResponse),
			RetryAfter: parseRetryAfter(res.Header.Get("Retry-After"), c.now()),
		}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &ConnectionError{URL: esURL, Err: errors.Wrap(err, "unable to read response body")}
	}
	return body, nil
}

func (c *client) encodePayload(data []byte) ([]byte, string, error) {
	if !c.compress {
		return data, "", nil
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, "", errors.Wrap(err, "unable to compress bulk request")
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "unable to compress bulk request")
	}
	return buf.Bytes(), "gzip", nil
}

// retryable is true for transient status codes and connection errors as long as the context is not done.
func (c *client) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// waitTime returns backoff * 2^(attempt-1) capped at MaxBackoff
// or the requested Retry-After if that is longer.
func (c *client) waitTime(attempt int, err error) time.Duration {
	wait := c.backoff
	for i := 1; i < attempt && wait < MaxBackoff; i++ {
		wait *= 2
	}
	if wait > MaxBackoff {
		wait = MaxBackoff
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > wait {
		wait = statusErr.RetryAfter
		if wait > MaxRetryAfter {
			wait = MaxRetryAfter
		}
	}
	return wait
}

func (c *client) parseUrlNoEscape(rawPath string, query url.Values) string {
	u := *c.endpoint
	u.Path = path.Join(u.Path, rawPath)
	var result string
	if u.Path == "" {
		result = u.Scheme + "://" + u.Host
	} else {
		result = u.Scheme + "://" + path.Join(u.Host, u.Path)
	}
	rawQuery := u.RawQuery
	if len(query) != 0 {
		if rawQuery != "" {
			rawQuery += "&"
		}
		rawQuery += query.Encode()
	}
	if rawQuery != "" {
		result += "?" + rawQuery
	}
	return result
}

func setAttempts(err error, attempts int) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		statusErr.Attempts = attempts
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		connErr.Attempts = attempts
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
