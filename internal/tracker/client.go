package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/docdyhr/versiontracker-sub001/internal/common/logger"
)

// Default client tuning
const (
	// DefaultMaxConcurrentFetches bounds parallel catalog fetches
	DefaultMaxConcurrentFetches = 4
	// DefaultFetchTimeout bounds a single fetch attempt
	DefaultFetchTimeout = 30 * time.Second
)

// FetchResult is the outcome of resolving one canonical name.
type FetchResult struct {
	// Name is the canonical name that was resolved
	Name string
	// Package is the catalog record, valid when Err is nil
	Package CatalogPackage
	// FromCache is true if the record came from the cache
	FromCache bool
	// Err is a *FetchError when the record is unavailable
	Err error
}

// Client resolves canonical names to catalog records. Cache hits are served
// directly; misses are fetched through a bounded worker pool with a
// per-attempt timeout, rate limiting and exponential backoff.
type Client struct {
	// source is the external catalog
	source Source
	// cache holds fetched records and deduplicates in-flight fetches
	cache *Cache
	// workers is the maximum number of concurrent fetches
	workers int
	// fetchTimeout bounds each fetch attempt
	fetchTimeout time.Duration
	// retry controls retries of failed fetches
	retry RetryConfig
	// limiter throttles requests to the catalog (nil = unlimited)
	limiter *rate.Limiter
	// sleepFunc allows overriding the backoff wait for testing
	sleepFunc func(context.Context, time.Duration) error
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithCache sets the cache shared by the client
func WithCache(cache *Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithWorkers sets the maximum number of concurrent fetches
func WithWorkers(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithFetchTimeout sets the timeout of a single fetch attempt
func WithFetchTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithRetryConfig sets the retry behavior
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithRateLimit limits catalog requests to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithSleepFunc sets a custom backoff wait (useful for testing)
func WithSleepFunc(fn func(context.Context, time.Duration) error) ClientOption {
	return func(c *Client) {
		c.sleepFunc = fn
	}
}

// NewClient creates a catalog client for the given source.
func NewClient(source Source, opts ...ClientOption) *Client {
	c := &Client{
		source:       source,
		workers:      DefaultMaxConcurrentFetches,
		fetchTimeout: DefaultFetchTimeout,
		retry:        DefaultRetryConfig(),
		sleepFunc:    sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cache == nil {
		c.cache = NewCache()
	}

	return c
}

// NewClientFromSettings creates a client tuned by s. Extra options are
// applied after the settings.
func NewClientFromSettings(source Source, s Settings, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithCache(NewCache(WithTTL(s.CacheTTL()))),
		WithWorkers(s.MaxConcurrentFetches),
		WithFetchTimeout(s.FetchTimeout()),
		WithRetryConfig(s.RetryConfig()),
		WithRateLimit(s.RequestsPerSecond, s.MaxConcurrentFetches),
	}
	return NewClient(source, append(base, opts...)...)
}

// Cache returns the cache instance.
func (c *Client) Cache() *Cache {
	return c.cache
}

// Resolve returns a result for every distinct name. Names that are cached
// and fresh never reach the source; the rest are fetched concurrently. A
// failure for one name never affects the others.
func (c *Client) Resolve(ctx context.Context, names []string) map[string]FetchResult {
	results := make(map[string]FetchResult, len(names))

	var pending []string
	for _, name := range names {
		if _, done := results[name]; done {
			continue
		}
		if pkg, ok := c.cache.Get(name); ok {
			results[name] = FetchResult{Name: name, Package: pkg, FromCache: true}
			continue
		}
		// Placeholder keeps duplicates out of pending
		results[name] = FetchResult{Name: name}
		pending = append(pending, name)
	}

	if len(pending) == 0 {
		return results
	}

	logger.Debug("fetching %d catalog record(s) with %d worker(s)", len(pending), c.workers)

	fetched := make([]FetchResult, len(pending))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, name := range pending {
		g.Go(func() error {
			fetched[i] = c.resolveOne(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range fetched {
		if r.Err != nil {
			logger.Warn("catalog record for %s unavailable: %v", r.Name, r.Err)
		}
		results[r.Name] = r
	}

	return results
}

// Lookup resolves a single canonical name.
func (c *Client) Lookup(ctx context.Context, name string) FetchResult {
	return c.Resolve(ctx, []string{name})[name]
}

// resolveOne goes through the cache so concurrent requests share one fetch.
func (c *Client) resolveOne(ctx context.Context, name string) FetchResult {
	pkg, hit, err := c.cache.Fetch(ctx, name, func() (CatalogPackage, error) {
		return c.fetchWithRetry(ctx, name)
	})
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{Name: name, Err: fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)}
		}
		return FetchResult{Name: name, Err: err}
	}
	return FetchResult{Name: name, Package: pkg, FromCache: hit}
}

// fetchWithRetry fetches a record, retrying transient failures with
// exponential backoff. Not-found and malformed records are not retried.
func (c *Client) fetchWithRetry(ctx context.Context, name string) (CatalogPackage, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleepFunc(ctx, c.retry.Delay(attempt)); err != nil {
				lastErr = fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
				break
			}
		}

		if err := ctx.Err(); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
			break
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				lastErr = fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
				break
			}
		}

		attempts++
		pkg, err := c.fetchOnce(ctx, name)
		if err == nil {
			return pkg, nil
		}
		lastErr = err

		if !isRetryable(err) {
			break
		}
		logger.Debug("fetch %s attempt %d failed: %v", name, attempts, err)
	}

	return CatalogPackage{}, &FetchError{Name: name, Attempts: attempts, Err: lastErr}
}

// fetchOnce runs a single attempt under its own timeout. The attempt is
// abandoned when the timeout fires even if the source ignores its context.
func (c *Client) fetchOnce(ctx context.Context, name string) (CatalogPackage, error) {
	fctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	type fetched struct {
		pkg CatalogPackage
		err error
	}
	ch := make(chan fetched, 1)
	go func() {
		pkg, err := c.source.Fetch(fctx, name)
		ch <- fetched{pkg: pkg, err: err}
	}()

	var f fetched
	select {
	case f = <-ch:
	case <-fctx.Done():
		f.err = fctx.Err()
	}

	if f.err == nil {
		return f.pkg, nil
	}

	switch {
	case ctx.Err() != nil:
		return CatalogPackage{}, fmt.Errorf("%w: %v", ErrDeadlineExceeded, f.err)
	case errors.Is(fctx.Err(), context.DeadlineExceeded):
		return CatalogPackage{}, fmt.Errorf("%w after %s: %v", ErrFetchTimeout, c.fetchTimeout, f.err)
	case errors.Is(f.err, ErrNotFound), errors.Is(f.err, ErrParse), errors.Is(f.err, ErrFetchFailed):
		return CatalogPackage{}, f.err
	default:
		return CatalogPackage{}, fmt.Errorf("%w: %v", ErrFetchFailed, f.err)
	}
}
