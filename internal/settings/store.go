package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/buildwithkt/wallsync/internal/events"
)

// ErrKeyNotFound is returned by Get for unknown keys.
var ErrKeyNotFound = errors.New("settings key not found")

// Store persists small JSON values, one file per key. It backs the
// lightweight app-settings storage that holds the raw manifest and user
// preferences, independent of the binary asset cache.
type Store struct {
	baseDir string
	logger  *events.Logger

	mu sync.RWMutex
}

// NewStore creates a settings store rooted at baseDir.
func NewStore(baseDir string, logger *events.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}

	return &Store{
		baseDir: baseDir,
		logger:  logger.WithField("component", "settings_store"),
	}, nil
}

// Set marshals value and writes it under key. The write is atomic: temp
// file then rename, so readers never observe a partial value.
func (s *Store) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", key, err)
	}

	path := s.keyPath(key)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("commit settings file: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"key":  key,
		"size": len(data),
	}).Debug("Settings value saved")

	return nil
}

// Get unmarshals the value stored under key into out.
func (s *Store) Get(key string, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.keyPath(key))
	if os.IsNotExist(err) {
		return ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse settings value %s: %w", key, err)
	}

	return nil
}

// Delete removes the value stored under key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.keyPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete settings file: %w", err)
	}
	return nil
}

// keyPath maps a key to a file path, replacing separators so keys cannot
// escape the base directory.
func (s *Store) keyPath(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.baseDir, safe+".json")
}
