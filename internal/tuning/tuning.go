// Package tuning holds the adaptive heuristics as isolated policy objects
// so they can be tuned or disabled without touching the core computations.
package tuning

import "time"

// TTL policy thresholds. Hit rates are percentages in [0, 100].
const (
	LowHitRate  = 50.0
	HighHitRate = 80.0
)

// TTLPolicy widens the upstream fetch TTL when the cache hit rate is low
// (system under load or slow upstream) and narrows it when the hit rate is
// high. Staleness never exceeds 2x the base TTL.
type TTLPolicy struct {
	Base time.Duration
}

// TTL returns the effective TTL for the given hit rate percentage.
func (p TTLPolicy) TTL(hitRate float64) time.Duration {
	switch {
	case hitRate < LowHitRate:
		return p.Base * 2
	case hitRate > HighHitRate:
		return p.Base * 4 / 5
	default:
		return p.Base
	}
}

// Refresh policy thresholds.
const (
	slowTick     = 100 * time.Millisecond
	fastTick     = 50 * time.Millisecond
	historyLen   = 10
	minSamples   = 5
	widenFactor  = 1.2
	narrowFactor = 0.9
)

// RefreshPolicy adapts the poll interval to observed tick latencies: slow
// ticks widen the interval, fast ticks narrow it, both clamped to
// [Min, Max]. Not safe for concurrent use; the poll loop owns it.
type RefreshPolicy struct {
	min     time.Duration
	max     time.Duration
	current time.Duration
	history []time.Duration
}

// NewRefreshPolicy creates a policy starting at base, clamped to [min, max].
func NewRefreshPolicy(base, min, max time.Duration) *RefreshPolicy {
	if min <= 0 {
		min = time.Second
	}
	if max < min {
		max = min
	}
	if base < min {
		base = min
	}
	if base > max {
		base = max
	}
	return &RefreshPolicy{
		min:     min,
		max:     max,
		current: base,
		history: make([]time.Duration, 0, historyLen),
	}
}

// Observe records one tick latency and adjusts the interval once enough
// samples have accumulated.
func (p *RefreshPolicy) Observe(tick time.Duration) {
	if len(p.history) == historyLen {
		copy(p.history, p.history[1:])
		p.history = p.history[:historyLen-1]
	}
	p.history = append(p.history, tick)

	if len(p.history) < minSamples {
		return
	}

	var sum time.Duration
	for _, d := range p.history {
		sum += d
	}
	avg := sum / time.Duration(len(p.history))

	switch {
	case avg > slowTick:
		p.current = time.Duration(float64(p.current) * widenFactor)
		if p.current > p.max {
			p.current = p.max
		}
	case avg < fastTick:
		p.current = time.Duration(float64(p.current) * narrowFactor)
		if p.current < p.min {
			p.current = p.min
		}
	}
}

// Interval returns the current poll interval.
func (p *RefreshPolicy) Interval() time.Duration {
	return p.current
}
