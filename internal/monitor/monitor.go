// Package monitor runs the poll loop: fetch usage, compute rates and
// predictions, render a frame, and adapt the poll interval to how long
// each tick takes.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/goodtune/tokenmon/internal/cache"
	"github.com/goodtune/tokenmon/internal/config"
	"github.com/goodtune/tokenmon/internal/datasource"
	"github.com/goodtune/tokenmon/internal/display"
	"github.com/goodtune/tokenmon/internal/engine"
	"github.com/goodtune/tokenmon/internal/metrics"
	"github.com/goodtune/tokenmon/internal/session"
	"github.com/goodtune/tokenmon/internal/tuning"
)

// Monitor ties the data source, the engine, and the renderer together.
type Monitor struct {
	cfg     *config.Config
	source  *datasource.Client
	engine  *engine.Engine
	render  *display.Renderer
	refresh *tuning.RefreshPolicy
	clock   cache.Clock
	logger  zerolog.Logger
	plan    engine.Plan
}

// New creates a monitor from validated configuration.
func New(cfg *config.Config, source *datasource.Client, eng *engine.Engine, renderer *display.Renderer, logger zerolog.Logger) (*Monitor, error) {
	plan, err := engine.ParsePlan(cfg.Plan)
	if err != nil {
		return nil, err
	}

	// Durations were validated by config.Load.
	base, _ := time.ParseDuration(cfg.Refresh.Interval)
	min, _ := time.ParseDuration(cfg.Refresh.Min)
	max, _ := time.ParseDuration(cfg.Refresh.Max)

	return &Monitor{
		cfg:     cfg,
		source:  source,
		engine:  eng,
		render:  renderer,
		refresh: tuning.NewRefreshPolicy(base, min, max),
		clock:   cache.RealClock{},
		logger:  logger.With().Str("component", "monitor").Logger(),
		plan:    plan,
	}, nil
}

// SetClock overrides the clock (tests only).
func (m *Monitor) SetClock(clk cache.Clock) {
	m.clock = clk
}

// Run polls until the context is cancelled. Cancellation is the normal
// way to stop and is not reported as an error.
func (m *Monitor) Run(ctx context.Context) error {
	m.render.Init()
	defer m.render.Close()

	m.logger.Info().
		Str("plan", string(m.plan)).
		Str("timezone", m.cfg.Timezone).
		Dur("interval", m.refresh.Interval()).
		Msg("Starting monitor")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		start := time.Now()
		frame, err := m.tick(ctx)
		elapsed := time.Since(start)

		metrics.PollsTotal.Inc()
		metrics.PollDuration.Observe(elapsed.Seconds())
		m.refresh.Observe(elapsed)

		if err != nil {
			m.logger.Warn().Err(err).Msg("Poll failed")
		}
		m.render.Render(frame)

		timer.Reset(m.refresh.Interval())
	}
}

// tick performs one poll and builds the frame to display. A failed fetch
// with no fallback yields a waiting frame rather than an error frame.
func (m *Monitor) tick(ctx context.Context) (display.Frame, error) {
	now := m.clock.Now()

	snap, err := m.source.Blocks(ctx)
	if err != nil {
		if errors.Is(err, datasource.ErrUnavailable) {
			return display.Frame{Now: now, NoSession: true, Stale: true}, nil
		}
		return display.Frame{Now: now, NoSession: true}, err
	}

	active := session.FindActive(snap.Blocks)
	if active == nil {
		return display.Frame{Now: now, NoSession: true, Stale: m.source.Degraded(ctx)}, nil
	}

	tokensUsed := active.Tokens

	limit := m.engine.TokenLimit(m.plan, snap.Blocks)
	upgraded := false
	if m.plan == engine.PlanPro && tokensUsed > limit {
		// Usage past the pro ceiling means the account is on a larger
		// plan than configured; size the quota from observed history.
		if alt := m.engine.TokenLimit(engine.PlanCustomMax, snap.Blocks); alt > limit {
			limit = alt
			upgraded = true
		}
	}

	rate := m.engine.HourlyBurnRate(snap.Blocks, now)
	resetAt := m.engine.NextReset(now, m.cfg.CustomResetHour(), m.cfg.Timezone)
	pred := engine.Predict(tokensUsed, limit, rate, resetAt, now, m.plan)

	metrics.BurnRate.Set(rate)
	metrics.TokensUsed.Set(float64(tokensUsed))
	metrics.TokenLimit.Set(float64(limit))

	// Clock readouts are shown in the schedule timezone.
	loc := m.engine.Location(m.cfg.Timezone)

	return display.Frame{
		Plan:                string(m.plan),
		TokensUsed:          tokensUsed,
		TokenLimit:          limit,
		TokensLeft:          pred.TokensLeft,
		BurnRate:            rate,
		Velocity:            engine.Velocity(rate),
		ResetAt:             resetAt.In(loc),
		PredictedEnd:        pred.PredictedEnd.In(loc),
		Now:                 now,
		UpgradeTriggered:    upgraded,
		OverQuota:           pred.OverQuota,
		ExhaustsBeforeReset: pred.ExhaustsBeforeReset,
		Stale:               m.source.Degraded(ctx),
	}, nil
}
