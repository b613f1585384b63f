package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Plan != "pro" {
		t.Errorf("Plan = %q, want pro", cfg.Plan)
	}
	if cfg.ResetHour != -1 {
		t.Errorf("ResetHour = %d, want -1", cfg.ResetHour)
	}
	if cfg.Timezone != "Europe/Warsaw" {
		t.Errorf("Timezone = %q, want Europe/Warsaw", cfg.Timezone)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Source.Timeout != "8s" {
		t.Errorf("Source.Timeout = %q, want 8s", cfg.Source.Timeout)
	}
	if got := cfg.CustomResetHour(); got != nil {
		t.Errorf("CustomResetHour() = %v, want nil", *got)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
plan: max5
reset_hour: 6
timezone: UTC
cache:
  backend: redis
refresh:
  interval: 5s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Plan != "max5" {
		t.Errorf("Plan = %q, want max5", cfg.Plan)
	}
	if got := cfg.CustomResetHour(); got == nil || *got != 6 {
		t.Errorf("CustomResetHour() = %v, want 6", got)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("Cache.Backend = %q, want redis", cfg.Cache.Backend)
	}
	if cfg.Refresh.Interval != "5s" {
		t.Errorf("Refresh.Interval = %q, want 5s", cfg.Refresh.Interval)
	}
	// Untouched keys keep their defaults.
	if cfg.Source.Cooldown != "30s" {
		t.Errorf("Source.Cooldown = %q, want default 30s", cfg.Source.Cooldown)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad plan", "plan: enterprise\n"},
		{"reset hour too large", "reset_hour: 24\n"},
		{"reset hour too small", "reset_hour: -2\n"},
		{"bad backend", "cache:\n  backend: memcached\n"},
		{"bad duration", "refresh:\n  interval: soon\n"},
		{"zero cache entries", "cache:\n  max_entries: 0\n"},
		{"empty command", "source:\n  command: []\n"},
		{"bad metrics port", "metrics:\n  enabled: true\n  port: 99999\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Errorf("Load() should have rejected:\n%s", tt.content)
			}
		})
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml")); err == nil {
		t.Error("Load() on unreadable explicit path should fail")
	}
}
