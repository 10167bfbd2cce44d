package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// httpDoer is the minimal HTTP client surface the fetcher needs, satisfied
// by *http.Client. Declared locally rather than on ports so instrumented
// fakes can be swapped in tests without touching the store-port surface.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherOptions configures DocumentFetcher behavior; a snapshot taken once
// per aggregation run so a concurrent config reload cannot split behavior
// mid-run.
type FetcherOptions struct {
	FetchCacheTTL        time.Duration
	FailureCacheTTL      time.Duration
	FetchTimeout         time.Duration
	MaxConcurrentFetches int
	FallbackPaths        []string
}

// DocumentFetcher fetches downstream OpenAPI documents over HTTP with
// single-flight coalescing, fallback-path probing, a process-wide
// concurrency ceiling, and failure caching to shield flapping downstreams.
type DocumentFetcher struct {
	client  httpDoer
	cache   *AggregationCache
	logger  zerolog.Logger
	opts    FetcherOptions
	group   singleflight.Group
	gate    chan struct{}
}

// NewDocumentFetcher constructs a DocumentFetcher. client may be any
// httpDoer (typically &http.Client{}); tests supply an instrumented fake to
// observe the single-flight property.
func NewDocumentFetcher(client httpDoer, cache *AggregationCache, logger zerolog.Logger, opts FetcherOptions) *DocumentFetcher {
	if opts.MaxConcurrentFetches <= 0 {
		opts.MaxConcurrentFetches = 10
	}
	return &DocumentFetcher{
		client: client,
		cache:  cache,
		logger: logger,
		opts:   opts,
		gate:   make(chan struct{}, opts.MaxConcurrentFetches),
	}
}

// Fetch retrieves the OpenAPI document at baseURL+openAPIPath, trying
// configured fallback paths in order on failure, deserializing a cached
// entry when present, and coalescing concurrent callers for the same key
// into one outbound attempt. Returns (nil, nil) — not an error — when every
// path fails; failures are cached for FailureCacheTTL.
func (f *DocumentFetcher) Fetch(ctx context.Context, baseURL, openAPIPath string) (*Spec, error) {
	key := fetchCacheKey(baseURL, openAPIPath)

	if cached, ok := f.cache.Get(key); ok {
		return decodeCachedSpec(cached)
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		spec, cacheable := f.fetchUncached(ctx, baseURL, openAPIPath)
		f.store(key, baseURL, spec, cacheable)
		return spec, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*Spec), nil
}

// fetchUncached performs the actual HTTP attempts (primary then fallbacks),
// returning the parsed document and whether it (or its absence) should be
// cached at all — payload-ceiling checks happen in AggregationCache.Set.
func (f *DocumentFetcher) fetchUncached(ctx context.Context, baseURL, openAPIPath string) (*Spec, bool) {
	paths := append([]string{openAPIPath}, f.opts.FallbackPaths...)
	for _, p := range paths {
		spec, body, ok := f.attempt(ctx, baseURL, p)
		if ok {
			f.logger.Debug().Str("base_url", baseURL).Str("path", p).Msg("openapi: fetch succeeded")
			_ = body
			return spec, true
		}
	}
	f.logger.Warn().Str("base_url", baseURL).Msg("openapi: all fetch paths failed")
	return nil, true
}

// attempt performs one bounded HTTP GET and parse, honoring the
// concurrency gate and per-attempt timeout.
func (f *DocumentFetcher) attempt(ctx context.Context, baseURL, path string) (*Spec, []byte, bool) {
	select {
	case f.gate <- struct{}{}:
		defer func() { <-f.gate }()
	case <-ctx.Done():
		return nil, nil, false
	}

	timeout := f.opts.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := trimTrailingSlash(baseURL) + ensureLeadingSlash(path)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, false
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, false
	}
	var spec Spec
	if err := json.Unmarshal(body, &spec); err != nil {
		return nil, nil, false
	}
	return &spec, body, true
}

// store serializes spec (or a failure marker) into the cache under the
// fetch/failure TTL and the standard openapi/baseUrl tags.
func (f *DocumentFetcher) store(key, baseURL string, spec *Spec, cacheable bool) {
	if !cacheable {
		return
	}
	tags := []string{"openapi", "baseUrl:" + baseURL}
	if spec == nil {
		ttl := f.opts.FailureCacheTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		f.cache.Set(key, []byte("null"), ttl, tags...)
		return
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return
	}
	ttl := f.opts.FetchCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	f.cache.Set(key, data, ttl, tags...)
}

func decodeCachedSpec(data []byte) (*Spec, error) {
	if string(data) == "null" {
		return nil, nil
	}
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("openapi: decode cached document: %w", err)
	}
	return &spec, nil
}

func ensureLeadingSlash(p string) string {
	if p == "" || p[0] != '/' {
		return "/" + p
	}
	return p
}
