package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from file and environment.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader. An empty configPath searches the
// default locations.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "WALLSYNC",
	}
}

// Load reads configuration, layering file and environment overrides on top
// of the defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	} else {
		for _, path := range l.defaultPaths() {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
			break
		}
	}

	// Bind the env keys explicitly so AutomaticEnv sees nested fields even
	// when they are absent from the config file.
	for _, key := range []string{
		"api.base_url", "api.manifest_url", "api.timeout", "api.user_agent",
		"storage.data_dir", "storage.cache_path", "storage.settings_dir",
		"sync.thumb_concurrency", "sync.priority_attempts", "sync.bulk_attempts",
		"log.level", "log.format", "log.file",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// defaultPaths returns default config file locations.
func (l *Loader) defaultPaths() []string {
	paths := []string{
		"wallsync.json",
		".wallsync.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "wallsync", "config.json"),
			filepath.Join(homeDir, ".wallsync", "config.json"),
		)
	}

	return paths
}
