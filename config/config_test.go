package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.MaxGames != 5 {
		t.Errorf("MaxGames = %d, want 5", cfg.MaxGames)
	}
	if cfg.TickInterval.Std() != 15*time.Second {
		t.Errorf("TickInterval = %v, want 15s", cfg.TickInterval.Std())
	}
	if len(cfg.GameNames) != 10 {
		t.Errorf("got %d game names, want 10", len(cfg.GameNames))
	}
	if cfg.OpenGamePrefix != "OPEN" {
		t.Errorf("OpenGamePrefix = %q", cfg.OpenGamePrefix)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `max_games: 2
tick_interval: 30s
monitor_addr: ":8090"
adaptive: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxGames != 2 {
		t.Errorf("MaxGames = %d, want 2", cfg.MaxGames)
	}
	if cfg.TickInterval.Std() != 30*time.Second {
		t.Errorf("TickInterval = %v, want 30s", cfg.TickInterval.Std())
	}
	if cfg.MonitorAddr != ":8090" {
		t.Errorf("MonitorAddr = %q", cfg.MonitorAddr)
	}
	if cfg.Adaptive {
		t.Error("Adaptive should be overridden to false")
	}
	// Untouched fields keep their defaults.
	if cfg.Contract == "" || cfg.ToriiURL == "" {
		t.Error("defaults lost on partial config")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no contract", func(c *Config) { c.Contract = "" }},
		{"no torii url", func(c *Config) { c.ToriiURL = "" }},
		{"negative games", func(c *Config) { c.MaxGames = -1 }},
		{"zero interval", func(c *Config) { c.TickInterval = 0 }},
		{"no names", func(c *Config) { c.GameNames = nil }},
	}
	for _, tc := range tests {
		cfg := Default()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
	}
}
