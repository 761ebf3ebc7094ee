package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwithkt/wallsync/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 6, cfg.Sync.ThumbConcurrency)
	assert.Equal(t, 3, cfg.Sync.PriorityAttempts)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty manifest url", func(c *config.Config) { c.API.ManifestURL = "" }},
		{"empty base url", func(c *config.Config) { c.API.BaseURL = "" }},
		{"zero timeout", func(c *config.Config) { c.API.Timeout = 0 }},
		{"zero concurrency", func(c *config.Config) { c.Sync.ThumbConcurrency = 0 }},
		{"bad log level", func(c *config.Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *config.Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoaderFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "wallsync.json")

	content := `{
        "api": {"manifest_url": "https://example.com/wallpaper.json", "timeout": "5s"},
        "sync": {"thumb_concurrency": 2},
        "log": {"level": "debug"}
    }`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := config.NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/wallpaper.json", cfg.API.ManifestURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2, cfg.Sync.ThumbConcurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched fields keep defaults.
	assert.Equal(t, "https://buildwithkt.dev", cfg.API.BaseURL)
}

func TestLoaderEnvOverride(t *testing.T) {
	t.Setenv("WALLSYNC_LOG_LEVEL", "warn")
	t.Setenv("WALLSYNC_SYNC_THUMB_CONCURRENCY", "4")

	cfg, err := config.NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Sync.ThumbConcurrency)
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = filepath.Join(tmpDir, "data")
	cfg.Storage.CachePath = filepath.Join(tmpDir, "data", "assets.db")
	cfg.Storage.SettingsDir = filepath.Join(tmpDir, "data", "settings")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Storage.DataDir)
	assert.DirExists(t, cfg.Storage.SettingsDir)
}
