// Package engine implements the usage-rate and schedule computations:
// trailing-hour burn rate, next quota reset, quota limit resolution, and
// exhaustion prediction. All operations are pure given their inputs; the
// injected caches only memoize results.
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/goodtune/tokenmon/internal/cache"
)

// Engine computes burn rates, reset boundaries, and token limits, caching
// each result under keys that encode every input affecting the value.
type Engine struct {
	rates       *cache.Cache[float64]
	resets      *cache.Cache[time.Time]
	zones       *cache.Cache[*time.Location]
	limits      *cache.Cache[int]
	defaultZone string
	logger      zerolog.Logger
}

// New creates an Engine with its memoization caches.
func New(logger zerolog.Logger) (*Engine, error) {
	rates, err := cache.New[float64]("burn_rate", 64)
	if err != nil {
		return nil, err
	}
	resets, err := cache.New[time.Time]("reset", 64)
	if err != nil {
		return nil, err
	}
	zones, err := cache.New[*time.Location]("timezone", 16)
	if err != nil {
		return nil, err
	}
	limits, err := cache.New[int]("limit", 16)
	if err != nil {
		return nil, err
	}

	return &Engine{
		rates:       rates,
		resets:      resets,
		zones:       zones,
		limits:      limits,
		defaultZone: DefaultTimezone,
		logger:      logger.With().Str("component", "engine").Logger(),
	}, nil
}
