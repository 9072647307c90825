// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or inconsistent, the process
// exits with an error.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"jobmate/listing-service/internal/kvstore"
)

// Config holds all runtime configuration for the listing service.
type Config struct {
	Port        string        `env:"LISTING_PORT" envDefault:"8083"`
	GRPCPort    string        `env:"LISTING_GRPC_PORT" envDefault:"9083"`
	BaseURL     string        `env:"LISTING_BASE_URL"`
	HTTPTimeout time.Duration `env:"LISTING_HTTP_TIMEOUT" envDefault:"15s"`

	// RedFlags are case-insensitive terms; listed jobs containing any are discarded.
	RedFlags []string `env:"LISTING_RED_FLAGS" envSeparator:","`

	// Storage selects the bookmark backend: sqlite, redis, postgres or memory.
	Storage     string `env:"BOOKMARK_STORAGE" envDefault:"sqlite"`
	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"bookmarks.db"`

	PrimaryKey  string `env:"BOOKMARK_PRIMARY_KEY" envDefault:"bookmarks"`
	BackupKey   string `env:"BOOKMARK_BACKUP_KEY" envDefault:"bookmarks_backup"`
	ClearBackup bool   `env:"BOOKMARK_CLEAR_BACKUP" envDefault:"false"`

	// RefreshIntervalMinutes re-fetches page 1 on a cron tick; 0 disables it.
	RefreshIntervalMinutes int `env:"REFRESH_INTERVAL_MINUTES" envDefault:"0"`
	// VerifySpec is a cron spec for scheduled backup verification; empty disables it.
	VerifySpec string `env:"BOOKMARK_VERIFY_SPEC"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and the environment, and returns a
// validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required values and backend-specific combinations.
func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))

	if c.BaseURL == "" {
		return fmt.Errorf("LISTING_BASE_URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("LISTING_BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}

	switch c.Storage {
	case kvstore.BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when BOOKMARK_STORAGE=sqlite")
		}
	case kvstore.BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when BOOKMARK_STORAGE=redis")
		}
	case kvstore.BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when BOOKMARK_STORAGE=postgres")
		}
	case kvstore.BackendMemory:
	default:
		return fmt.Errorf("BOOKMARK_STORAGE must be one of sqlite, redis, postgres, memory, got %q", c.Storage)
	}

	if c.PrimaryKey == "" || c.BackupKey == "" {
		return fmt.Errorf("BOOKMARK_PRIMARY_KEY and BOOKMARK_BACKUP_KEY must not be empty")
	}
	if c.PrimaryKey == c.BackupKey {
		return fmt.Errorf("BOOKMARK_PRIMARY_KEY and BOOKMARK_BACKUP_KEY must differ, both are %q", c.PrimaryKey)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("LISTING_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.RefreshIntervalMinutes < 0 {
		return fmt.Errorf("REFRESH_INTERVAL_MINUTES must be zero or a positive integer, got %d", c.RefreshIntervalMinutes)
	}
	if c.VerifySpec != "" {
		if _, err := cron.ParseStandard(c.VerifySpec); err != nil {
			return fmt.Errorf("BOOKMARK_VERIFY_SPEC is not a valid cron spec: %w", err)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return lvl, nil
}
