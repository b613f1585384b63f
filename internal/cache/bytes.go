package cache

import (
	"context"
	"time"
)

// ByteStore holds raw data-source payloads and failure markers. The
// context matters for remote backends; the memory backend ignores it.
type ByteStore interface {
	Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, key string)
	Stats() Stats
}

// MemoryBytes is the in-process ByteStore, backed by Cache.
type MemoryBytes struct {
	inner *Cache[[]byte]
}

// NewMemoryBytes creates an in-process ByteStore bounded to maxEntries.
func NewMemoryBytes(maxEntries int) (*MemoryBytes, error) {
	return NewMemoryBytesWithClock(maxEntries, RealClock{})
}

// NewMemoryBytesWithClock creates an in-process ByteStore with an explicit clock.
func NewMemoryBytesWithClock(maxEntries int, clock Clock) (*MemoryBytes, error) {
	inner, err := NewWithClock[[]byte]("snapshot", maxEntries, clock)
	if err != nil {
		return nil, err
	}
	return &MemoryBytes{inner: inner}, nil
}

// Get returns the stored payload, honoring the read-time TTL.
func (m *MemoryBytes) Get(_ context.Context, key string, ttl time.Duration) ([]byte, bool) {
	return m.inner.Get(key, ttl)
}

// Set stores the payload with the current timestamp.
func (m *MemoryBytes) Set(_ context.Context, key string, value []byte) {
	m.inner.Set(key, value)
}

// Delete removes a single entry.
func (m *MemoryBytes) Delete(_ context.Context, key string) {
	m.inner.Delete(key)
}

// Stats returns underlying cache statistics.
func (m *MemoryBytes) Stats() Stats {
	return m.inner.Stats()
}
