package cache

import (
	"testing"
	"time"
)

func newTestCache(t *testing.T) (*Cache[string], *TestClock) {
	t.Helper()

	clock := &TestClock{CurrentTime: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c, err := NewWithClock[string]("test", 4, clock)
	if err != nil {
		t.Fatalf("NewWithClock() error = %v", err)
	}
	return c, clock
}

func TestCache_RoundTrip(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("k", "v")

	// ttl = 0 never expires by age, regardless of elapsed time.
	clock.Advance(1000 * time.Hour)
	got, ok := c.Get("k", 0)
	if !ok || got != "v" {
		t.Errorf("Get(ttl=0) = %q, %v; want %q, true", got, ok, "v")
	}
}

func TestCache_TTLExpiryEvicts(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("k", "v")
	clock.Advance(11 * time.Second)

	if _, ok := c.Get("k", 10*time.Second); ok {
		t.Error("Get() after TTL elapsed should miss")
	}

	// Eviction is real: a subsequent read with ttl=0 also misses.
	if _, ok := c.Get("k", 0); ok {
		t.Error("expired entry should have been removed, not merely hidden")
	}
}

func TestCache_WithinTTL(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("k", "v")
	clock.Advance(9 * time.Second)

	got, ok := c.Get("k", 10*time.Second)
	if !ok || got != "v" {
		t.Errorf("Get() within TTL = %q, %v; want hit", got, ok)
	}
}

func TestCache_SetRefreshesTimestamp(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set("k", "old")
	clock.Advance(time.Minute)
	c.Set("k", "new")
	clock.Advance(30 * time.Second)

	got, ok := c.Get("k", time.Minute)
	if !ok || got != "new" {
		t.Errorf("Get() after overwrite = %q, %v; want %q, true", got, ok, "new")
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c, _ := newTestCache(t) // capacity 4

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")
	c.Set("d", "4")

	// Touch "a" so "b" becomes least recently used.
	if _, ok := c.Get("a", 0); !ok {
		t.Fatal("expected hit for a")
	}

	c.Set("e", "5")

	if _, ok := c.Get("b", 0); ok {
		t.Error("b should have been evicted as least recently used")
	}
	if _, ok := c.Get("a", 0); !ok {
		t.Error("a should have survived eviction")
	}
}

func TestCache_Stats(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("k", "v")
	c.Get("k", 0)         // hit
	c.Get("missing", 0)   // miss
	c.Get("also-gone", 0) // miss
	c.Get("k", 0)         // hit

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 2 {
		t.Errorf("Stats() hits=%d misses=%d, want 2/2", s.Hits, s.Misses)
	}
	if s.HitRate != 50 {
		t.Errorf("Stats() hit rate = %.1f, want 50", s.HitRate)
	}
	if s.Size != 1 {
		t.Errorf("Stats() size = %d, want 1", s.Size)
	}
}

func TestCache_ClearResetsStats(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("k", "v")
	c.Get("k", 0)
	c.Clear()

	if _, ok := c.Get("k", 0); ok {
		t.Error("Get() after Clear() should miss")
	}

	s := c.Stats()
	if s.Hits != 0 {
		t.Errorf("Stats() hits after Clear = %d, want 0", s.Hits)
	}
	if s.Size != 0 {
		t.Errorf("Stats() size after Clear = %d, want 0", s.Size)
	}
}

func TestCache_ZeroSizeUsesDefault(t *testing.T) {
	c, err := New[int]("sized", 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.Set("k", 1)
	if _, ok := c.Get("k", 0); !ok {
		t.Error("cache with default size should store entries")
	}
}
