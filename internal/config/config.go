// Package config provides configuration management for the updater.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the updater looks for its configuration when -config is not given.
const DefaultPath = "configs/updater.yaml"

// Source defaults.
const (
	DefaultPageURL            = "https://www.mhlw.go.jp/stf/kinnkyuuhininnyaku_00005.html"
	DefaultSpreadsheetPattern = `https://[^/"'\s<>]+/content/[^"'\s<>]+\.xlsx`
)

// Configuration validation errors.
var (
	ErrMissingPageURL      = errors.New("source.page_url is required")
	ErrMissingPattern      = errors.New("source.spreadsheet_pattern is required")
	ErrInvalidTimeout      = errors.New("fetch.timeout_sec must be at least 1")
	ErrInvalidMinInterval  = errors.New("fetch.min_interval_ms must be non-negative")
	ErrInvalidMaxBody      = errors.New("fetch.max_body_mb must be between 1 and 512")
	ErrMissingDataDir      = errors.New("output.data_dir is required")
	ErrMirrorInsideDataDir = errors.New("output.mirrors must not point at data_<date>.json files")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Environment variables that override file values.
const (
	EnvPageURL         = "ECPHARM_PAGE_URL"
	EnvDataDir         = "ECPHARM_DATA_DIR"
	EnvLogLevel        = "ECPHARM_LOG_LEVEL"
	EnvMetricsTextfile = "ECPHARM_METRICS_TEXTFILE"
	EnvTimeoutSec      = "ECPHARM_TIMEOUT_SEC"
)

// Config represents the complete updater configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SourceConfig describes the upstream page that links the spreadsheet.
type SourceConfig struct {
	PageURL            string `yaml:"page_url"`
	SpreadsheetPattern string `yaml:"spreadsheet_pattern"`
	UserAgent          string `yaml:"user_agent"`
}

// FetchConfig controls HTTP behaviour. Requests are never retried.
type FetchConfig struct {
	TimeoutSec    int `yaml:"timeout_sec"`
	MinIntervalMs int `yaml:"min_interval_ms"`
	MaxBodyMb     int `yaml:"max_body_mb"`
}

// OutputConfig defines where artifacts are written.
type OutputConfig struct {
	DataDir      string   `yaml:"data_dir"`
	Mirrors      []string `yaml:"mirrors"`
	KeepRaw      bool     `yaml:"keep_raw"`
	WriteSummary bool     `yaml:"write_summary"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig enables the prometheus textfile output. An empty Textfile disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns a complete configuration matching the published site layout.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			PageURL:            DefaultPageURL,
			SpreadsheetPattern: DefaultSpreadsheetPattern,
		},
		Fetch: FetchConfig{
			TimeoutSec:    120,
			MinIntervalMs: 1000,
			MaxBodyMb:     50,
		},
		Output: OutputConfig{
			DataDir:      "data",
			Mirrors:      []string{"docs/data.json", "line_bot/data.json"},
			KeepRaw:      true,
			WriteSummary: true,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig loads configuration from a YAML file on top of Default, then applies
// .env and environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Resolve loads path when given, DefaultPath when it exists, or Default otherwise.
func Resolve(path string) (*Config, string, error) {
	if path != "" {
		cfg, err := LoadConfig(path)
		return cfg, path, err
	}

	if _, err := os.Stat(DefaultPath); err == nil {
		cfg, err := LoadConfig(DefaultPath)
		return cfg, DefaultPath, err
	}

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, "", nil
}

// ApplyEnv loads a .env file from the working directory if present and lets
// ECPHARM_* variables override file values. A .env that cannot be parsed is an error.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	c.Source.PageURL = getEnvWithDefault(EnvPageURL, c.Source.PageURL)
	c.Output.DataDir = getEnvWithDefault(EnvDataDir, c.Output.DataDir)
	c.Logging.Level = getEnvWithDefault(EnvLogLevel, c.Logging.Level)
	c.Metrics.Textfile = getEnvWithDefault(EnvMetricsTextfile, c.Metrics.Textfile)
	c.Fetch.TimeoutSec = getIntEnvWithDefault(EnvTimeoutSec, c.Fetch.TimeoutSec)

	return nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.PageURL) == "" {
		return ErrMissingPageURL
	}

	if c.Source.SpreadsheetPattern == "" {
		return ErrMissingPattern
	}

	if _, err := regexp.Compile(c.Source.SpreadsheetPattern); err != nil {
		return fmt.Errorf("source.spreadsheet_pattern is invalid regex: %w", err)
	}

	if c.Fetch.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Fetch.MinIntervalMs < 0 {
		return ErrInvalidMinInterval
	}

	if c.Fetch.MaxBodyMb < 1 || c.Fetch.MaxBodyMb > 512 {
		return ErrInvalidMaxBody
	}

	if strings.TrimSpace(c.Output.DataDir) == "" {
		return ErrMissingDataDir
	}

	for _, m := range c.Output.Mirrors {
		base := filepath.Base(m)
		if strings.HasPrefix(base, "data_") && filepath.Clean(filepath.Dir(m)) == filepath.Clean(c.Output.DataDir) {
			return fmt.Errorf("%w: %s", ErrMirrorInsideDataDir, m)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// GetTimeout returns the HTTP client timeout.
func (f *FetchConfig) GetTimeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// GetMinInterval returns the minimum delay between two requests.
func (f *FetchConfig) GetMinInterval() time.Duration {
	return time.Duration(f.MinIntervalMs) * time.Millisecond
}

// GetMaxBodyBytes returns the response size limit in bytes.
func (f *FetchConfig) GetMaxBodyBytes() int64 {
	return int64(f.MaxBodyMb) * 1024 * 1024
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Page: %s, DataDir: %s, Mirrors: %d}",
		c.Source.PageURL,
		c.Output.DataDir,
		len(c.Output.Mirrors),
	)
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
