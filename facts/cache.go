package facts

import (
	"time"

	"github.com/liamcoop/linkrules/rules"
)

// FactCache stores previously looked-up fact values.
// This allows swapping the in-memory cache for a shared one.
type FactCache interface {
	// Get returns a cached value, ok is false on a miss or expired entry
	Get(name string) (v any, ok bool)

	// Set stores a value
	Set(name string, v any)

	// Invalidate clears the cache, forcing fresh lookups
	Invalidate()
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL is the time-to-live for cached facts.
	// Set to 0 for no expiration (manual invalidation only)
	TTL time.Duration
}

// DefaultCacheConfig caches for the lifetime of one snapshot
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}

// CachedSource memoizes successful lookups of an underlying source.
// Failed lookups are never cached.
type CachedSource struct {
	source rules.FactSource
	cache  FactCache
}

// Cached wraps source with an in-memory cache
func Cached(source rules.FactSource, config CacheConfig) *CachedSource {
	return NewCachedSource(source, NewInMemoryFactCache(config))
}

// NewCachedSource wraps source with the given cache
func NewCachedSource(source rules.FactSource, cache FactCache) *CachedSource {
	return &CachedSource{source: source, cache: cache}
}

// Lookup serves name from the cache or the underlying source
func (c *CachedSource) Lookup(name string) (any, error) {
	if v, ok := c.cache.Get(name); ok {
		return v, nil
	}

	v, err := c.source.Lookup(name)
	if err != nil {
		return nil, err
	}

	c.cache.Set(name, v)
	return v, nil
}

// Invalidate drops every cached value
func (c *CachedSource) Invalidate() {
	c.cache.Invalidate()
}
