package pcell

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
)

// Cache memoizes built components by signature key. Lookup-or-build is
// atomic per key: concurrent requests for one signature share a single
// build, while distinct signatures build in parallel. Failed builds leave
// no entry behind.
//
// A Cache has an explicit lifetime. Create one per process (or per test)
// and share it through the [Library] that owns it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	canonical string
	component *component.Component
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

func (c *Cache) lookup(key string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Lookup returns the component published under key.
func (c *Cache) Lookup(key string) (*component.Component, bool) {
	e, ok := c.lookup(key)
	return e.component, ok
}

// GetOrBuild returns the component for sig, running build only if no
// component has been published under sig.Key. The second result reports a
// cache hit. A published entry whose canonical parameters differ from
// sig.Canonical is a key collision.
func (c *Cache) GetOrBuild(sig Signature, build func() (*component.Component, error)) (*component.Component, bool, error) {
	if e, ok := c.lookup(sig.Key); ok {
		if err := checkCollision(sig, e); err != nil {
			return nil, false, err
		}
		c.hits.Add(1)
		return e.component, true, nil
	}

	built := false
	v, err, _ := c.group.Do(sig.Key, func() (any, error) {
		if e, ok := c.lookup(sig.Key); ok {
			return e, nil
		}
		comp, err := build()
		if err != nil {
			return nil, err
		}
		built = true
		e := cacheEntry{canonical: sig.Canonical, component: comp}
		c.mu.Lock()
		c.entries[sig.Key] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, false, err
	}
	e := v.(cacheEntry)
	if err := checkCollision(sig, e); err != nil {
		return nil, false, err
	}
	if built {
		c.misses.Add(1)
	} else {
		c.hits.Add(1)
	}
	return e.component, !built, nil
}

func checkCollision(sig Signature, e cacheEntry) error {
	if e.canonical == sig.Canonical {
		return nil
	}
	return errors.New(errors.ErrCodeCacheKeyCollision,
		"key %s already holds %s, cannot publish %s", sig.Key, e.canonical, sig.Canonical)
}

// Keys returns the published keys, sorted.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.entries))
}

// Len returns the number of published components.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry and resets the counters. Components already
// handed out stay valid.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{Entries: c.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
