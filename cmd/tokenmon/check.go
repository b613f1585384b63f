package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goodtune/tokenmon/internal/config"
	"github.com/goodtune/tokenmon/internal/datasource"
	"github.com/goodtune/tokenmon/internal/engine"
	"github.com/goodtune/tokenmon/internal/session"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the data source and show a one-shot usage summary",
	Long:  `Check that the ccusage reporter is installed and reachable, fetch one snapshot, and print the numbers the monitor would display.`,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer closeStore()

	source := datasource.New(store, datasource.Config{
		Command: cfg.Source.Command,
		Timeout: parseDuration(cfg.Source.Timeout, 8*time.Second),
	}, logger)

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Println("TOKENMON DATA SOURCE CHECK")
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Command:    %s\n", strings.Join(cfg.Source.Command, " "))
	fmt.Printf("Plan:       %s\n", cfg.Plan)
	fmt.Printf("Timezone:   %s\n", cfg.Timezone)
	fmt.Println()

	cyan.Print("Reporter:   ")
	if !source.Installed() {
		red.Println("NOT FOUND")
		fmt.Printf("            → %s is not on PATH\n", cfg.Source.Command[0])
		fmt.Println("            → install it with: npm install -g ccusage")
		fmt.Println()
		return fmt.Errorf("%s not installed", cfg.Source.Command[0])
	}
	green.Println("INSTALLED")

	ctx, cancel := context.WithTimeout(context.Background(), parseDuration(cfg.Source.Timeout, 8*time.Second)+time.Second)
	defer cancel()

	cyan.Print("Fetch:      ")
	snap, err := source.Blocks(ctx)
	if err != nil {
		red.Println("FAILED")
		fmt.Printf("            → %v\n", err)
		fmt.Println()
		return err
	}
	green.Println("OK")
	fmt.Printf("Blocks:     %d\n", len(snap.Blocks))
	fmt.Println()

	plan, err := engine.ParsePlan(cfg.Plan)
	if err != nil {
		return err
	}
	eng, err := engine.New(logger)
	if err != nil {
		return err
	}

	now := time.Now()
	active := session.FindActive(snap.Blocks)
	limit := eng.TokenLimit(plan, snap.Blocks)
	rate := eng.HourlyBurnRate(snap.Blocks, now)
	resetAt := eng.NextReset(now, cfg.CustomResetHour(), cfg.Timezone)

	cyan.Print("Session:    ")
	if active == nil {
		yellow.Println("NONE ACTIVE")
	} else {
		green.Println("ACTIVE")
		fmt.Printf("Tokens:     %d / ~%d\n", active.Tokens, limit)
	}
	fmt.Printf("Burn Rate:  %.1f tokens/min (%s)\n", rate, engine.Velocity(rate))
	fmt.Printf("Next Reset: %s\n", resetAt.Format("2006-01-02 15:04 MST"))

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	return nil
}
