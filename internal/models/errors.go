package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeNetwork  = "NETWORK_ERROR"
	ErrCodeStorage  = "STORAGE_ERROR"
	ErrCodeManifest = "MANIFEST_ERROR"
	ErrCodeConfig   = "CONFIG_ERROR"
)

// Sentinel errors
var (
	ErrMissingKey       = errors.New("entry key is required")
	ErrInvalidManifest  = errors.New("manifest missing version")
	ErrStoreUnavailable = errors.New("asset store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// DownloadError reports an exhausted download.
type DownloadError struct {
	URL      string
	Key      string
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s (%s) after %d attempts: %v", e.Key, e.URL, e.Attempts, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// SyncError pins a failure to a sync phase.
type SyncError struct {
	Phase string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Phase, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
