// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package httpcache

import (
	"net/http"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"

	"github.com/gardener/os-release-indexer/pkg/apis/config"
)

// Cache wraps the delegate with a cache for upstream release information.
// A disk cache is used if a cache directory is configured, otherwise the responses are cached in memory.
func Cache(log logr.Logger, cfg config.Cache, delegate http.RoundTripper) (http.RoundTripper, error) {
	if delegate == nil {
		delegate = http.DefaultTransport
	}
	c, err := getCache(cfg)
	if err != nil {
		return nil, err
	}

	t := httpcache.NewTransport(c)
	t.Transport = &maxAgeTransport{
		delegate: delegate,
		maxAge:   cfg.MaxAge,
	}
	return &cacheLogger{
		log:      log,
		delegate: t,
	}, nil
}

// NewClient creates a http client that caches upstream responses.
func NewClient(log logr.Logger, cfg config.Cache, timeout time.Duration) (*http.Client, error) {
	transport, err := Cache(log, cfg, nil)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

func getCache(cfg config.Cache) (httpcache.Cache, error) {
	if cfg.Dir == "" {
		return httpcache.NewMemoryCache(), nil
	}

	if err := os.MkdirAll(cfg.Dir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "unable to create cache directory %s", cfg.Dir)
	}
	if cfg.DiskSizeMB <= 0 {
		return nil, errors.New("disk cache size has to be greater than 0")
	}

	return diskcache.NewWithDiskv(diskv.New(diskv.Options{
		BasePath:     cfg.Dir,
		CacheSizeMax: uint64(cfg.DiskSizeMB) * 1024 * 1024,
	})), nil
}

type cacheLogger struct {
	log      logr.Logger
	delegate http.RoundTripper
}

var _ http.RoundTripper = &cacheLogger{}

func (l *cacheLogger) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := l.delegate.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	hit := resp.Header.Get(httpcache.XFromCache) == "1"
	l.log.V(5).Info("upstream request", "url", req.URL.String(), "status", resp.StatusCode, "cached", hit)
	return resp, nil
}
