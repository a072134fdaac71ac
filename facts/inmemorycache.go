package facts

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value    any
	cachedAt time.Time
}

// InMemoryFactCache is a map-backed FactCache.
// Thread-safe for concurrent access
type InMemoryFactCache struct {
	entries map[string]cacheEntry
	config  CacheConfig
	now     func() time.Time
	mu      sync.RWMutex
}

// NewInMemoryFactCache creates an empty cache
func NewInMemoryFactCache(config CacheConfig) *InMemoryFactCache {
	return &InMemoryFactCache{
		entries: make(map[string]cacheEntry),
		config:  config,
		now:     time.Now,
	}
}

// Get returns the cached value unless it is missing or expired
func (c *InMemoryFactCache) Get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}

	if c.config.TTL > 0 && c.now().Sub(e.cachedAt) > c.config.TTL {
		return nil, false
	}

	return e.value, true
}

// Set stores a value
func (c *InMemoryFactCache) Set(name string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[name] = cacheEntry{value: v, cachedAt: c.now()}
}

// Invalidate clears the cache
func (c *InMemoryFactCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of entries, expired ones included
func (c *InMemoryFactCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
