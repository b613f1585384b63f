// Package datasource invokes the external usage reporter and shields the
// rest of the system from its failures: results are cached with an
// adaptive TTL, failures start a cooldown during which the last known-good
// snapshot is served, and repeated errors are rate-limited in the log.
package datasource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goodtune/tokenmon/internal/cache"
	"github.com/goodtune/tokenmon/internal/metrics"
	"github.com/goodtune/tokenmon/internal/session"
	"github.com/goodtune/tokenmon/internal/tuning"
)

// ErrUnavailable is returned when the reporter failed and no known-good
// snapshot exists to fall back to.
var ErrUnavailable = errors.New("usage data unavailable")

// Cache keys. The failure instant is stored next to the payload so monitors
// sharing a Redis backend also share the cooldown.
const (
	dataKey     = "ccusage:data"
	fallbackKey = "ccusage:fallback"
	failureKey  = "ccusage:last_failure"
)

// Runner executes the reporter and returns its stdout.
type Runner func(ctx context.Context) ([]byte, error)

// Config holds data source settings
type Config struct {
	Command          []string
	Timeout          time.Duration
	CacheTTL         time.Duration
	Cooldown         time.Duration
	ErrorLogInterval time.Duration
}

// Client fetches usage snapshots from the external reporter.
type Client struct {
	store  cache.ByteStore
	cfg    Config
	ttl    tuning.TTLPolicy
	runner Runner
	clock  cache.Clock
	logger zerolog.Logger

	mu         sync.Mutex
	lastLogged map[string]time.Time
}

// New creates a data source client. The zero values of Config fields fall
// back to the upstream defaults (8s timeout, 5s TTL, 30s cooldown, 60s
// error log window).
func New(store cache.ByteStore, cfg Config, logger zerolog.Logger) *Client {
	if len(cfg.Command) == 0 {
		cfg.Command = []string{"ccusage", "blocks", "--offline", "--json"}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Second
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.ErrorLogInterval == 0 {
		cfg.ErrorLogInterval = 60 * time.Second
	}

	c := &Client{
		store:      store,
		cfg:        cfg,
		ttl:        tuning.TTLPolicy{Base: cfg.CacheTTL},
		clock:      cache.RealClock{},
		logger:     logger.With().Str("component", "datasource").Logger(),
		lastLogged: make(map[string]time.Time),
	}
	c.runner = c.runCommand
	return c
}

// SetRunner overrides command execution (tests only).
func (c *Client) SetRunner(r Runner) {
	c.runner = r
}

// SetClock overrides the clock (tests only).
func (c *Client) SetClock(clk cache.Clock) {
	c.clock = clk
}

// Degraded reports whether the client is inside a failure cooldown and
// therefore serving fallback data.
func (c *Client) Degraded(ctx context.Context) bool {
	return c.inCooldown(ctx, c.clock.Now())
}

// Installed reports whether the reporter binary is on PATH.
func (c *Client) Installed() bool {
	_, err := exec.LookPath(c.cfg.Command[0])
	return err == nil
}

// Blocks returns the current usage snapshot. The cached payload is served
// within its adaptive TTL; during a failure cooldown the last known-good
// snapshot is served without retrying the reporter.
func (c *Client) Blocks(ctx context.Context) (*session.Snapshot, error) {
	now := c.clock.Now()

	ttl := c.ttl.TTL(c.store.Stats().HitRate)
	if raw, ok := c.store.Get(ctx, dataKey, ttl); ok {
		metrics.FetchesTotal.WithLabelValues("cached").Inc()
		return session.Parse(raw, now)
	}

	if c.inCooldown(ctx, now) {
		metrics.FetchesTotal.WithLabelValues("cooldown").Inc()
		return c.fallback(ctx, now)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := now
	raw, err := c.runner(fetchCtx)
	metrics.FetchDuration.Observe(c.clock.Now().Sub(start).Seconds())

	if err != nil {
		c.recordFailure(ctx, now, err)
		return c.fallback(ctx, now)
	}

	snap, err := session.Parse(raw, now)
	if err != nil {
		c.recordFailure(ctx, now, err)
		return c.fallback(ctx, now)
	}

	c.store.Set(ctx, dataKey, raw)
	c.store.Set(ctx, fallbackKey, raw)
	c.store.Delete(ctx, failureKey)

	metrics.FetchesTotal.WithLabelValues("ok").Inc()
	return snap, nil
}

func (c *Client) inCooldown(ctx context.Context, now time.Time) bool {
	raw, ok := c.store.Get(ctx, failureKey, 0)
	if !ok {
		return false
	}
	at, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return false
	}
	return now.Sub(at) < c.cfg.Cooldown
}

func (c *Client) recordFailure(ctx context.Context, now time.Time, err error) {
	category := categorize(err)
	metrics.FetchesTotal.WithLabelValues("error").Inc()
	metrics.FetchErrors.WithLabelValues(category).Inc()

	c.store.Set(ctx, failureKey, []byte(now.Format(time.RFC3339Nano)))

	// Rate-limit reporting per category to avoid log spam.
	c.mu.Lock()
	last, seen := c.lastLogged[category]
	shouldLog := !seen || now.Sub(last) > c.cfg.ErrorLogInterval
	if shouldLog {
		c.lastLogged[category] = now
	}
	c.mu.Unlock()

	if shouldLog {
		c.logger.Error().
			Err(err).
			Str("category", category).
			Str("command", strings.Join(c.cfg.Command, " ")).
			Msg("Usage fetch failed")
	}
}

func (c *Client) fallback(ctx context.Context, now time.Time) (*session.Snapshot, error) {
	raw, ok := c.store.Get(ctx, fallbackKey, 0)
	if !ok {
		return nil, ErrUnavailable
	}
	snap, err := session.Parse(raw, now)
	if err != nil {
		return nil, ErrUnavailable
	}
	metrics.FetchesTotal.WithLabelValues("fallback").Inc()
	return snap, nil
}

func (c *Client) runCommand(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.cfg.Command[0], c.cfg.Command[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("reporter timed out: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("reporter failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("reporter failed: %w", err)
	}

	return stdout.Bytes(), nil
}

func categorize(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, exec.ErrNotFound):
		return "not_found"
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "exit"
		}
		if strings.Contains(err.Error(), "decode") {
			return "decode"
		}
		return "other"
	}
}
