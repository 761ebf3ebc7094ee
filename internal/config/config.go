package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Version is the application version. The cache schema version is derived
// from it, so bumping it triggers a schema upgrade check on next open.
const Version = "1.0.5"

// Config holds all application configuration.
type Config struct {
	// Remote manifest and asset endpoints
	API APIConfig `json:"api" mapstructure:"api"`

	// Local storage paths
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Sync behavior
	Sync SyncConfig `json:"sync" mapstructure:"sync"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// APIConfig for remote communication.
type APIConfig struct {
	// BaseURL resolves relative thumbnail/asset paths from the manifest.
	BaseURL     string        `json:"base_url" mapstructure:"base_url"`
	ManifestURL string        `json:"manifest_url" mapstructure:"manifest_url"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
	UserAgent   string        `json:"user_agent" mapstructure:"user_agent"`
}

// StorageConfig for local paths.
type StorageConfig struct {
	DataDir     string `json:"data_dir" mapstructure:"data_dir"`         // Base directory for all data
	CachePath   string `json:"cache_path" mapstructure:"cache_path"`     // SQLite asset cache
	SettingsDir string `json:"settings_dir" mapstructure:"settings_dir"` // Lightweight settings store
}

// SyncConfig for synchronization behavior.
type SyncConfig struct {
	ThumbConcurrency int `json:"thumb_concurrency" mapstructure:"thumb_concurrency"` // Concurrent thumbnail downloads
	PriorityAttempts int `json:"priority_attempts" mapstructure:"priority_attempts"` // Retries for first image/video
	BulkAttempts     int `json:"bulk_attempts" mapstructure:"bulk_attempts"`         // Retries for background downloads
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // Log file path (empty = stdout)
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".wallsync"

	return &Config{
		API: APIConfig{
			BaseURL:     "https://buildwithkt.dev",
			ManifestURL: "https://buildwithkt.dev/extensions/themes+/assets/wallpaper.json",
			Timeout:     15 * time.Second,
			UserAgent:   "wallsync/" + Version,
		},
		Storage: StorageConfig{
			DataDir:     dataDir,
			CachePath:   filepath.Join(dataDir, "assets.db"),
			SettingsDir: filepath.Join(dataDir, "settings"),
		},
		Sync: SyncConfig{
			ThumbConcurrency: 6,
			PriorityAttempts: 3,
			BulkAttempts:     2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.API.ManifestURL == "" {
		return errors.New("api.manifest_url is required")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}

	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}

	if c.Sync.ThumbConcurrency <= 0 {
		return errors.New("sync.thumb_concurrency must be positive")
	}

	if c.Sync.PriorityAttempts <= 0 || c.Sync.BulkAttempts <= 0 {
		return errors.New("sync attempt counts must be positive")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDir,
		filepath.Dir(c.Storage.CachePath),
		c.Storage.SettingsDir,
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
