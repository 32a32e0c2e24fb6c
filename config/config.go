// Package config handles library configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds process-wide defaults for the ingestion layer. All fields are
// optional; zero values fall back to library defaults at the call site.
type Config struct {
	LogLevel      string // log level: debug, info, warn, error (default "info")
	DefaultEngine string // URI engine when none is given: "connectorx" or "adbc"
	BatchSize     int    // default fetch batch size for drivers that honour it

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.DefaultEngine != "" && c.DefaultEngine != "connectorx" && c.DefaultEngine != "adbc" {
		return fmt.Errorf("FRAMELAKE_DEFAULT_ENGINE must be one of {'connectorx', 'adbc'}, got %q", c.DefaultEngine)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("FRAMELAKE_BATCH_SIZE must be non-negative, got %d", c.BatchSize)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables. Every variable
// is optional; the library works without any of them set.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:      os.Getenv("FRAMELAKE_LOG_LEVEL"),
		DefaultEngine: os.Getenv("FRAMELAKE_DEFAULT_ENGINE"),
	}

	if v := os.Getenv("FRAMELAKE_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring FRAMELAKE_BATCH_SIZE=%q: not an integer", v))
		} else {
			cfg.BatchSize = n
		}
	}

	// Defaults
	if cfg.DefaultEngine == "" {
		cfg.DefaultEngine = "connectorx"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment. Variables already set in the environment take precedence.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
