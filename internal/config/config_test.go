package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "mt5bridge-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if !cfg.App.LogToFile || cfg.App.LogPath != "logs/connector.log" {
		t.Fatalf("unexpected log file settings: %+v", cfg.App)
	}
	if cfg.Backend.URL != "https://api.rubi-studio.test" {
		t.Fatalf("unexpected backend URL: %s", cfg.Backend.URL)
	}
	if cfg.Backend.TimeoutMs != 2500 {
		t.Fatalf("unexpected timeout: %d", cfg.Backend.TimeoutMs)
	}
	if !cfg.Backend.LiveChannel {
		t.Fatalf("expected live channel enabled")
	}
	if !cfg.Trading.AutoTrading || cfg.Trading.SignalsOnly {
		t.Fatalf("unexpected trading flags: %+v", cfg.Trading)
	}
	if cfg.Trading.MaxRiskPercent != 2.5 {
		t.Fatalf("unexpected risk percent: %.2f", cfg.Trading.MaxRiskPercent)
	}
	if cfg.Trading.MaxOpenPositions != 4 {
		t.Fatalf("unexpected max positions: %d", cfg.Trading.MaxOpenPositions)
	}
	if cfg.CheckInterval() != 5*time.Second {
		t.Fatalf("unexpected check interval: %s", cfg.CheckInterval())
	}
	if cfg.HeartbeatInterval() != 30*time.Second {
		t.Fatalf("unexpected heartbeat interval: %s", cfg.HeartbeatInterval())
	}
	if cfg.AccountInterval() != 60*time.Second {
		t.Fatalf("unexpected account interval: %s", cfg.AccountInterval())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyEnvOverridesToken(t *testing.T) {
	t.Setenv("MT5BRIDGE_API_TOKEN", "env-token")
	t.Setenv("MT5BRIDGE_BACKEND_URL", "https://override.test")

	cfg := &Config{}
	cfg.ApplyEnv()
	if cfg.Backend.APIToken != "env-token" {
		t.Fatalf("token not overridden: %s", cfg.Backend.APIToken)
	}
	if cfg.Backend.URL != "https://override.test" {
		t.Fatalf("url not overridden: %s", cfg.Backend.URL)
	}
}

func TestValidateFatals(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.applyDefaults()
		cfg.Backend.URL = "https://api.test"
		cfg.Backend.APIToken = "tok"
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Backend.APIToken = "" }},
		{"missing url", func(c *Config) { c.Backend.URL = "" }},
		{"relative url", func(c *Config) { c.Backend.URL = "not-a-url" }},
		{"negative timeout", func(c *Config) { c.Backend.TimeoutMs = -1 }},
		{"zero check interval", func(c *Config) { c.Intervals.CheckSecs = -5 }},
		{"risk over 100", func(c *Config) { c.Trading.MaxRiskPercent = 150 }},
		{"zero max positions", func(c *Config) { c.Trading.MaxOpenPositions = -1 }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
