// Package config exposes strongly typed connector configuration loaded from YAML.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, metrics address,
// and logging behavior.
type App struct {
	Name        string `yaml:"name"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogToFile   bool   `yaml:"log_to_file"`
	LogPath     string `yaml:"log_path"`
}

// Backend describes how to reach the signal backend.
type Backend struct {
	URL         string `yaml:"url"`
	APIToken    string `yaml:"api_token"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	LiveChannel bool   `yaml:"live_channel"`
	JournalPath string `yaml:"journal_path"`
}

// Trading encodes the execution guard-rails for the signal executor.
type Trading struct {
	AutoTrading      bool    `yaml:"auto_trading"`
	SignalsOnly      bool    `yaml:"signals_only"`
	MaxRiskPercent   float64 `yaml:"max_risk_percent"`
	MaxOpenPositions int     `yaml:"max_open_positions"`
}

// Intervals groups the scheduler cadences, in seconds.
type Intervals struct {
	CheckSecs     int `yaml:"check_secs"`
	HeartbeatSecs int `yaml:"heartbeat_secs"`
	AccountSecs   int `yaml:"account_secs"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Backend   Backend   `yaml:"backend"`
	Trading   Trading   `yaml:"trading"`
	Intervals Intervals `yaml:"intervals"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// ApplyEnv overrides secret-bearing fields from the environment so tokens
// never need to live in the YAML file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MT5BRIDGE_API_TOKEN"); v != "" {
		c.Backend.APIToken = v
	}
	if v := os.Getenv("MT5BRIDGE_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Backend.TimeoutMs == 0 {
		c.Backend.TimeoutMs = 5000
	}
	if c.Intervals.CheckSecs == 0 {
		c.Intervals.CheckSecs = 5
	}
	if c.Intervals.HeartbeatSecs == 0 {
		c.Intervals.HeartbeatSecs = 30
	}
	if c.Intervals.AccountSecs == 0 {
		c.Intervals.AccountSecs = 60
	}
	if c.Trading.MaxRiskPercent == 0 {
		c.Trading.MaxRiskPercent = 2
	}
	if c.Trading.MaxOpenPositions == 0 {
		c.Trading.MaxOpenPositions = 5
	}
}

// Validate enforces the startup-fatal configuration rules. Anything caught
// here requires operator action; the connector refuses to start.
func (c *Config) Validate() error {
	if c.Backend.APIToken == "" {
		return fmt.Errorf("backend.api_token is required (set MT5BRIDGE_API_TOKEN)")
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.url %q is not a valid absolute URL", c.Backend.URL)
	}
	if c.Backend.TimeoutMs <= 0 {
		return fmt.Errorf("backend.timeout_ms must be positive")
	}
	if c.Intervals.CheckSecs <= 0 || c.Intervals.HeartbeatSecs <= 0 || c.Intervals.AccountSecs <= 0 {
		return fmt.Errorf("intervals must be positive")
	}
	if c.Trading.MaxRiskPercent <= 0 || c.Trading.MaxRiskPercent > 100 {
		return fmt.Errorf("trading.max_risk_percent must be in (0, 100]")
	}
	if c.Trading.MaxOpenPositions <= 0 {
		return fmt.Errorf("trading.max_open_positions must be positive")
	}
	return nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration { return time.Duration(c.Backend.TimeoutMs) * time.Millisecond }

// CheckInterval returns the scheduler debounce interval.
func (c *Config) CheckInterval() time.Duration { return time.Duration(c.Intervals.CheckSecs) * time.Second }

// HeartbeatInterval returns the heartbeat cadence.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Intervals.HeartbeatSecs) * time.Second
}

// AccountInterval returns the account reporting cadence.
func (c *Config) AccountInterval() time.Duration {
	return time.Duration(c.Intervals.AccountSecs) * time.Second
}
