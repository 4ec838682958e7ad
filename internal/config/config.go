// Package config loads and validates riskmonitor configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all riskmonitor configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Feeds    FeedsConfig    `yaml:"feeds"`
	Workers  WorkersConfig  `yaml:"workers"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig configures the Gemini transducer used by the agent pipeline.
type LLMConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	BaseURL        string `yaml:"base_url"`
	Timeout        string `yaml:"timeout"`
}

// FeedsConfig configures the external data feeds.
type FeedsConfig struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
	NewsAPIKey    string `yaml:"news_api_key"`
	GDELTBaseURL  string `yaml:"gdelt_base_url"`
	NOAABaseURL   string `yaml:"noaa_base_url"`
	Timeout       string `yaml:"timeout"`
}

// WorkersConfig configures the background poll loops.
type WorkersConfig struct {
	AlertScanInterval   string `yaml:"alert_scan_interval"`
	MarketScanInterval  string `yaml:"market_scan_interval"`
	WeatherPollInterval string `yaml:"weather_poll_interval"`
	AutoStart           bool   `yaml:"auto_start"`
}

// AlertsConfig holds the threshold rules that trigger alerts. These are the
// values watched for hot reload.
type AlertsConfig struct {
	MinAffectedSuppliers int     `yaml:"min_affected_suppliers"`
	CommodityMovePercent float64 `yaml:"commodity_move_percent"`
	PortCongestionLevel  int     `yaml:"port_congestion_level"`
	ConflictLevel        int     `yaml:"conflict_level"`
	WeatherMinSeverity   int     `yaml:"weather_min_severity"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "riskmonitor",
		Version: "1.0.0",

		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     "15s",
			WriteTimeout:    "60s",
			ShutdownTimeout: "10s",
		},

		Database: DatabaseConfig{
			Path: "data/riskmonitor.db",
		},

		LLM: LLMConfig{
			Model:          "gemini-2.0-flash",
			EmbeddingModel: "gemini-embedding-001",
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
			Timeout:        "120s",
		},

		Feeds: FeedsConfig{
			GDELTBaseURL: "https://api.gdeltproject.org/api/v2",
			NOAABaseURL:  "https://api.weather.gov",
			Timeout:      "30s",
		},

		Workers: WorkersConfig{
			AlertScanInterval:   "15m",
			MarketScanInterval:  "5m",
			WeatherPollInterval: "60s",
			AutoStart:           true,
		},

		Alerts: AlertsConfig{
			MinAffectedSuppliers: 3,
			CommodityMovePercent: 30,
			PortCongestionLevel:  7,
			ConflictLevel:        7,
			WeatherMinSeverity:   4,
		},

		Logging: LoggingConfig{
			Level: "info",
			Dir:   "logs",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("WEATHER_API_KEY"); key != "" {
		c.Feeds.WeatherAPIKey = key
	}
	if key := os.Getenv("NEWS_API_KEY"); key != "" {
		c.Feeds.NewsAPIKey = key
	}
	if path := os.Getenv("RISKMON_DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if addr := os.Getenv("RISKMON_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetFeedTimeout returns the feed client timeout as a duration.
func (c *Config) GetFeedTimeout() time.Duration {
	d, err := time.ParseDuration(c.Feeds.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetAlertScanInterval returns the alert scan cadence.
func (c *Config) GetAlertScanInterval() time.Duration {
	d, err := time.ParseDuration(c.Workers.AlertScanInterval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// GetMarketScanInterval returns the market scan cadence.
func (c *Config) GetMarketScanInterval() time.Duration {
	d, err := time.ParseDuration(c.Workers.MarketScanInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetWeatherPollInterval returns the weather poll cadence.
func (c *Config) GetWeatherPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Workers.WeatherPollInterval)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetShutdownTimeout returns the graceful shutdown window.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path not configured")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server address not configured")
	}
	if c.Alerts.MinAffectedSuppliers < 1 {
		return fmt.Errorf("min_affected_suppliers must be at least 1")
	}
	if c.Alerts.WeatherMinSeverity < 1 || c.Alerts.WeatherMinSeverity > 5 {
		return fmt.Errorf("weather_min_severity must be in 1..5")
	}
	return nil
}
