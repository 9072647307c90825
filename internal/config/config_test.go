package config_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/listing-service/internal/config"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"LISTING_PORT", "LISTING_GRPC_PORT", "LISTING_BASE_URL", "LISTING_HTTP_TIMEOUT",
		"LISTING_RED_FLAGS", "BOOKMARK_STORAGE", "REDIS_URL", "DATABASE_URL", "SQLITE_PATH",
		"BOOKMARK_PRIMARY_KEY", "BOOKMARK_BACKUP_KEY", "BOOKMARK_CLEAR_BACKUP",
		"REFRESH_INTERVAL_MINUTES", "BOOKMARK_VERIFY_SPEC", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTING_BASE_URL", "https://api.example.com/v1")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "9083", cfg.GRPCPort)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "sqlite", cfg.Storage)
	assert.Equal(t, "bookmarks.db", cfg.SQLitePath)
	assert.Equal(t, "bookmarks", cfg.PrimaryKey)
	assert.Equal(t, "bookmarks_backup", cfg.BackupKey)
	assert.False(t, cfg.ClearBackup)
	assert.Equal(t, 0, cfg.RefreshIntervalMinutes)
	assert.Empty(t, cfg.VerifySpec)
	assert.Empty(t, cfg.RedFlags)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTING_BASE_URL", "http://localhost:9000")
	t.Setenv("LISTING_HTTP_TIMEOUT", "3s")
	t.Setenv("BOOKMARK_STORAGE", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("BOOKMARK_CLEAR_BACKUP", "true")
	t.Setenv("REFRESH_INTERVAL_MINUTES", "10")
	t.Setenv("BOOKMARK_VERIFY_SPEC", "0 3 * * *")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LISTING_RED_FLAGS", "registration fee,work from home")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "redis", cfg.Storage)
	assert.True(t, cfg.ClearBackup)
	assert.Equal(t, 10, cfg.RefreshIntervalMinutes)
	assert.Equal(t, []string{"registration fee", "work from home"}, cfg.RedFlags)
	lvl, _ := cfg.SlogLevel()
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_Rejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing base url", map[string]string{}, "LISTING_BASE_URL is required"},
		{"relative base url", map[string]string{"LISTING_BASE_URL": "/jobs"}, "absolute http(s) URL"},
		{"redis without url", map[string]string{"BOOKMARK_STORAGE": "redis"}, "REDIS_URL is required"},
		{"postgres without url", map[string]string{"BOOKMARK_STORAGE": "postgres"}, "DATABASE_URL is required"},
		{"unknown backend", map[string]string{"BOOKMARK_STORAGE": "s3"}, "BOOKMARK_STORAGE must be one of"},
		{"same keys", map[string]string{"BOOKMARK_BACKUP_KEY": "bookmarks"}, "must differ"},
		{"negative interval", map[string]string{"REFRESH_INTERVAL_MINUTES": "-1"}, "REFRESH_INTERVAL_MINUTES"},
		{"bad cron", map[string]string{"BOOKMARK_VERIFY_SPEC": "every day"}, "BOOKMARK_VERIFY_SPEC"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad timeout", map[string]string{"LISTING_HTTP_TIMEOUT": "soon"}, "parse config"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			clearEnv(t)
			if _, ok := c.env["LISTING_BASE_URL"]; !ok && c.name != "missing base url" {
				t.Setenv("LISTING_BASE_URL", "https://api.example.com")
			}
			for k, v := range c.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func TestValidate_MemoryBackendNeedsNothing(t *testing.T) {
	cfg := config.Config{
		BaseURL:     "https://api.example.com",
		HTTPTimeout: time.Second,
		Storage:     "memory",
		PrimaryKey:  "a",
		BackupKey:   "b",
		LogLevel:    "warn",
	}
	assert.NoError(t, cfg.Validate())
}
