package engine

import (
	"fmt"
	"time"

	"github.com/goodtune/tokenmon/internal/session"
)

// burnWindow is the trailing window the burn rate is measured over.
const burnWindow = time.Hour

// burnRateTTL keeps the memoized rate fresh enough for a polling loop that
// reads it continuously.
const burnRateTTL = 10 * time.Second

// HourlyBurnRate returns tokens consumed per minute over the trailing hour.
//
// Active sessions contribute their full average rate (tokens so far over
// elapsed minutes), since that is the best estimate of current velocity.
// Completed sessions contribute the fraction of their tokens that falls
// inside the window, prorated by time and spread over the 60-minute window.
// Gap records never contribute. Returns exactly 0 when nothing contributes.
func (e *Engine) HourlyBurnRate(blocks []session.Block, now time.Time) float64 {
	if len(blocks) == 0 {
		return 0
	}

	key := fmt.Sprintf("burn_rate_%s_%d", now.Format(time.RFC3339Nano), len(blocks))
	if rate, ok := e.rates.Get(key, burnRateTTL); ok {
		return rate
	}

	windowStart := now.Add(-burnWindow)
	total := 0.0

	// Blocks arrive oldest-first, so walk backwards: once a block's
	// effective end precedes the window, every older block is out too.
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if b.Gap {
			continue
		}
		if b.Start.After(now) {
			continue
		}

		end := b.EffectiveEnd(now)
		if end.Before(windowStart) {
			break
		}

		overlapStart := laterOf(b.Start, windowStart)
		overlapEnd := earlierOf(end, now)
		if !overlapEnd.After(overlapStart) {
			continue
		}

		totalMinutes := end.Sub(b.Start).Minutes()
		if totalMinutes <= 0 {
			continue
		}

		if b.Active {
			total += float64(b.Tokens) / totalMinutes
			continue
		}

		overlapMinutes := overlapEnd.Sub(overlapStart).Minutes()
		proportional := float64(b.Tokens) * (overlapMinutes / totalMinutes)
		total += proportional / burnWindow.Minutes()
	}

	if total < 0 {
		total = 0
	}

	e.rates.Set(key, total)
	return total
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
