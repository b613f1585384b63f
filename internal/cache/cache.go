// Package cache provides the memoization layer shared by the engine and
// the data source: a bounded in-memory LRU cache with per-read TTL
// semantics, plus byte-level snapshot stores with memory and Redis
// backends.
package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/goodtune/tokenmon/internal/metrics"
)

// DefaultMaxEntries bounds a cache when the caller does not specify a size.
const DefaultMaxEntries = 500

// Stats reports cache effectiveness. HitRate is a percentage in [0, 100].
type Stats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a bounded LRU cache with TTL checked at read time. The TTL is
// caller-supplied per Get, so one cache can hold values with different
// freshness requirements. Safe for concurrent use.
type Cache[V any] struct {
	name    string
	inner   *lru.Cache[string, entry[V]]
	clock   Clock
	maxSize int

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// New creates a cache bounded to maxEntries, evicting least recently used
// entries on insert. The name labels the cache in metrics.
func New[V any](name string, maxEntries int) (*Cache[V], error) {
	return NewWithClock[V](name, maxEntries, RealClock{})
}

// NewWithClock creates a cache with an explicit clock for TTL checks.
func NewWithClock[V any](name string, maxEntries int, clock Clock) (*Cache[V], error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	inner, err := lru.New[string, entry[V]](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", name, err)
	}
	return &Cache[V]{name: name, inner: inner, clock: clock, maxSize: maxEntries}, nil
}

// Get returns the stored value unless ttl > 0 and the entry is older than
// ttl, in which case the entry is removed and Get reports a miss. A ttl of
// zero never expires by age.
func (c *Cache[V]) Get(key string, ttl time.Duration) (V, bool) {
	var zero V

	e, ok := c.inner.Get(key)
	if !ok {
		c.recordMiss()
		return zero, false
	}

	if ttl > 0 && c.clock.Now().Sub(e.storedAt) > ttl {
		c.inner.Remove(key)
		c.recordMiss()
		return zero, false
	}

	c.recordHit()
	return e.value, true
}

// Set unconditionally stores the value with the current timestamp,
// evicting the least recently used entry if the cache is full.
func (c *Cache[V]) Set(key string, value V) {
	c.inner.Add(key, entry[V]{value: value, storedAt: c.clock.Now()})
}

// Delete removes a single entry.
func (c *Cache[V]) Delete(key string) {
	c.inner.Remove(key)
}

// Clear empties the cache and resets statistics.
func (c *Cache[V]) Clear() {
	c.inner.Purge()
	c.mu.Lock()
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()
}

// Stats returns current cache statistics.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	hits, misses := c.hits, c.misses
	c.mu.Unlock()

	s := Stats{
		Size:    c.inner.Len(),
		MaxSize: c.maxSize,
		Hits:    hits,
		Misses:  misses,
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total) * 100
	}
	return s
}

func (c *Cache[V]) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	metrics.CacheHits.WithLabelValues(c.name).Inc()
}

func (c *Cache[V]) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	metrics.CacheMisses.WithLabelValues(c.name).Inc()
}
