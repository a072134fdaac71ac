package facts

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func countingSource(values map[string]any) (Lookups, *int) {
	calls := 0
	l := Lookups{}
	for name, v := range values {
		v := v
		l[name] = func() (any, error) {
			calls++
			return v, nil
		}
	}
	return l, &calls
}

func TestCachedSourceMemoizes(t *testing.T) {
	source, calls := countingSource(map[string]any{"backlink_count": int64(13)})
	cached := Cached(source, DefaultCacheConfig())

	for i := 0; i < 3; i++ {
		v, err := cached.Lookup("backlink_count")
		if err != nil {
			t.Fatalf("Lookup() failed: %v", err)
		}
		if v != int64(13) {
			t.Errorf("Lookup() = %v, want 13", v)
		}
	}

	if *calls != 1 {
		t.Errorf("underlying source called %d times, want 1", *calls)
	}
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	attempts := 0
	source := Lookups{"backlink": func() (any, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("temporary")
		}
		return "http://example.com", nil
	}}
	cached := Cached(source, DefaultCacheConfig())

	if _, err := cached.Lookup("backlink"); err == nil {
		t.Fatal("first Lookup() should fail")
	}
	v, err := cached.Lookup("backlink")
	if err != nil {
		t.Fatalf("second Lookup() failed: %v", err)
	}
	if v != "http://example.com" {
		t.Errorf("Lookup() = %v", v)
	}
}

func TestCachedSourceInvalidate(t *testing.T) {
	source, calls := countingSource(map[string]any{"backlink": "x"})
	cached := Cached(source, DefaultCacheConfig())

	cached.Lookup("backlink")
	cached.Invalidate()
	cached.Lookup("backlink")

	if *calls != 2 {
		t.Errorf("underlying source called %d times, want 2", *calls)
	}
}

func TestInMemoryFactCacheTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewInMemoryFactCache(CacheConfig{TTL: time.Minute})
	cache.now = func() time.Time { return now }

	cache.Set("backlink", "x")

	if _, ok := cache.Get("backlink"); !ok {
		t.Fatal("Get() should hit before TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("backlink"); ok {
		t.Error("Get() should miss after TTL")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestInMemoryFactCacheNoTTL(t *testing.T) {
	now := time.Now()
	cache := NewInMemoryFactCache(CacheConfig{})
	cache.now = func() time.Time { return now }

	cache.Set("backlink", "x")
	now = now.Add(24 * time.Hour)

	if _, ok := cache.Get("backlink"); !ok {
		t.Error("Get() should not expire without a TTL")
	}
}

func TestInMemoryFactCacheConcurrentAccess(t *testing.T) {
	cache := NewInMemoryFactCache(DefaultCacheConfig())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cache.Set("n", i)
			cache.Get("n")
			if i%5 == 0 {
				cache.Invalidate()
			}
		}(i)
	}
	wg.Wait()
}
