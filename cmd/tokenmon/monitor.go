package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goodtune/tokenmon/internal/cache"
	"github.com/goodtune/tokenmon/internal/config"
	"github.com/goodtune/tokenmon/internal/datasource"
	"github.com/goodtune/tokenmon/internal/display"
	"github.com/goodtune/tokenmon/internal/engine"
	"github.com/goodtune/tokenmon/internal/metrics"
	"github.com/goodtune/tokenmon/internal/monitor"
)

var (
	monitorPlan      string
	monitorResetHour int
	monitorTimezone  string
	monitorRefresh   string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Start the live token usage monitor",
	Long:  `Start the live monitor: poll ccusage, render burn rate, quota, and depletion predictions until interrupted.`,
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorPlan, "plan", "", "Quota plan: pro, max5, max20, or custom_max")
	monitorCmd.Flags().IntVar(&monitorResetHour, "reset-hour", -1, "Custom reset hour 0-23 (replaces the fixed schedule)")
	monitorCmd.Flags().StringVar(&monitorTimezone, "timezone", "", "Timezone for the reset schedule (e.g. Europe/Warsaw)")
	monitorCmd.Flags().StringVar(&monitorRefresh, "refresh", "", "Base refresh interval (e.g. 3s)")

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("plan", cfg.Plan).
		Str("backend", cfg.Cache.Backend).
		Msg("Starting tokenmon")

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer closeStore()

	source := datasource.New(store, datasource.Config{
		Command:          cfg.Source.Command,
		Timeout:          parseDuration(cfg.Source.Timeout, 8*time.Second),
		CacheTTL:         parseDuration(cfg.Source.CacheTTL, 5*time.Second),
		Cooldown:         parseDuration(cfg.Source.Cooldown, 30*time.Second),
		ErrorLogInterval: parseDuration(cfg.Source.ErrorLogInterval, time.Minute),
	}, logger)

	if !source.Installed() {
		return fmt.Errorf("%s not found on PATH, install it first", cfg.Source.Command[0])
	}

	eng, err := engine.New(logger)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	m, err := monitor.New(cfg, source, eng, display.NewRenderer(os.Stdout), logger)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Metrics.BindAddress, cfg.Metrics.Port)
		metricsServer := metrics.NewServer(addr, logger)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(); err != nil {
				logger.Error().Err(err).Msg("Failed to stop metrics server")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return m.Run(ctx)
}

// applyFlagOverrides layers command-line flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if monitorPlan != "" {
		if _, err := engine.ParsePlan(monitorPlan); err != nil {
			return err
		}
		cfg.Plan = monitorPlan
	}
	if cmd.Flags().Changed("reset-hour") {
		if monitorResetHour < -1 || monitorResetHour > 23 {
			return fmt.Errorf("reset-hour must be between 0 and 23, got %d", monitorResetHour)
		}
		cfg.ResetHour = monitorResetHour
	}
	if monitorTimezone != "" {
		cfg.Timezone = monitorTimezone
	}
	if monitorRefresh != "" {
		if _, err := time.ParseDuration(monitorRefresh); err != nil {
			return fmt.Errorf("invalid refresh interval %q: %w", monitorRefresh, err)
		}
		cfg.Refresh.Interval = monitorRefresh
	}
	return nil
}

// openStore opens the configured snapshot cache backend.
func openStore(cfg *config.Config, logger zerolog.Logger) (cache.ByteStore, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		store, err := cache.OpenRedis(cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close Redis connection")
			}
		}, nil
	default:
		store, err := cache.NewMemoryBytes(cfg.Cache.MaxEntries)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
