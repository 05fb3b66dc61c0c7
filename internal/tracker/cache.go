package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is the default time-to-live for cache entries (1 hour)
const DefaultCacheTTL = time.Hour

// CacheEntry represents a cached catalog record.
type CacheEntry struct {
	// Package is the cached catalog record
	Package CatalogPackage
	// FetchedAt is when this entry was stored
	FetchedAt time.Time
}

// Cache holds catalog records keyed by canonical name for the lifetime of
// the process. Entries expire once they are older than the TTL. Concurrent
// fetches for the same key are collapsed into one in-flight call.
type Cache struct {
	// entries holds all cached records, keyed by canonical name
	entries map[string]CacheEntry
	// ttl is the time-to-live for cache entries
	ttl time.Duration
	// mu protects concurrent access to entries
	mu sync.RWMutex
	// inflight deduplicates concurrent fetches per key
	inflight singleflight.Group
	// nowFunc allows injecting time for testing
	nowFunc func() time.Time
}

// CacheOption is a functional option for configuring Cache
type CacheOption func(*Cache)

// WithTTL sets a custom TTL for the cache
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithNowFunc sets a custom time function for testing
func WithNowFunc(fn func() time.Time) CacheOption {
	return func(c *Cache) {
		c.nowFunc = fn
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	cache := &Cache{
		entries: make(map[string]CacheEntry),
		ttl:     DefaultCacheTTL,
		nowFunc: time.Now,
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// TTL returns the configured time-to-live
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get retrieves a cached record if it exists and is not expired.
func (c *Cache) Get(name string) (CatalogPackage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[name]
	if !exists || c.isExpired(entry) {
		return CatalogPackage{}, false
	}

	return entry.Package, true
}

// isExpired checks if a cache entry has outlived the TTL
func (c *Cache) isExpired(entry CacheEntry) bool {
	return c.nowFunc().Sub(entry.FetchedAt) > c.ttl
}

// Set stores a record with the current timestamp.
func (c *Cache) Set(name string, pkg CatalogPackage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[name] = CacheEntry{
		Package:   pkg,
		FetchedAt: c.nowFunc(),
	}
}

// Fetch returns the cached record for name, or calls fetch to obtain it.
// Concurrent callers for the same name share a single call to fetch; only
// successful results are stored. The boolean reports a cache hit.
// A caller whose context ends stops waiting, while the shared fetch carries
// on for any other waiter. A waiter whose flight was cut short by the
// leader's context starts a new flight under its own.
func (c *Cache) Fetch(ctx context.Context, name string, fetch func() (CatalogPackage, error)) (CatalogPackage, bool, error) {
	for {
		if pkg, ok := c.Get(name); ok {
			return pkg, true, nil
		}

		ch := c.inflight.DoChan(name, func() (interface{}, error) {
			// Another flight may have filled the entry while this one was queued
			if pkg, ok := c.Get(name); ok {
				return pkg, nil
			}
			pkg, err := fetch()
			if err != nil {
				return nil, err
			}
			c.Set(name, pkg)
			return pkg, nil
		})

		select {
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(CatalogPackage), false, nil
			}
			if errors.Is(res.Err, ErrDeadlineExceeded) && ctx.Err() == nil {
				continue
			}
			return CatalogPackage{}, false, res.Err
		case <-ctx.Done():
			return CatalogPackage{}, false, ctx.Err()
		}
	}
}

// Delete removes a record from the cache.
func (c *Cache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, name)
}

// Len returns the number of entries in the cache, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetEntry retrieves the full cache entry for a name.
// This does not check TTL - use Get for TTL-aware retrieval.
func (c *Cache) GetEntry(name string) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[name]
	return entry, exists
}

// Cleanup removes all expired entries from the cache.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, entry := range c.entries {
		if c.isExpired(entry) {
			delete(c.entries, name)
		}
	}
}
