package transport

import (
	"context"
	"time"

	"github.com/buildwithkt/wallsync/internal/events"
	"github.com/buildwithkt/wallsync/internal/models"
	"github.com/buildwithkt/wallsync/internal/store"
)

const defaultMaxAttempts = 3

// Fetcher downloads remote resources and persists the outcome into the
// asset store under the key computed from id and kind.
type Fetcher struct {
	client *Client
	store  *store.AssetStore
	logger *events.Logger

	// Retry configuration
	retryDelay time.Duration
}

// NewFetcher creates a resource fetcher.
func NewFetcher(client *Client, assets *store.AssetStore, logger *events.Logger) *Fetcher {
	return &Fetcher{
		client:     client,
		store:      assets,
		logger:     logger.WithField("component", "fetcher"),
		retryDelay: 300 * time.Millisecond,
	}
}

// DownloadRequest describes one resource download.
type DownloadRequest struct {
	URL         string
	ID          string
	Kind        models.Kind
	Version     string
	MaxAttempts int
}

// Result is the outcome of a download.
type Result struct {
	OK  bool
	Err string
}

// Download fetches the resource with bounded retries and stores the result.
// A download that exhausts its retries is persisted as a failed-marker
// entry, so presence of an ok-status entry always means the blob is usable.
// Backend trouble while persisting is reported in the Result, not raised.
func (f *Fetcher) Download(ctx context.Context, req DownloadRequest) Result {
	if req.URL == "" {
		return Result{Err: "missing url"}
	}
	if req.ID == "" {
		return Result{Err: "missing id"}
	}

	attempts := req.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	key := models.Key(req.ID, req.Kind)
	data, err := f.fetchWithRetries(ctx, req.URL, attempts)

	entry := &models.Entry{
		Key:     key,
		ID:      req.ID,
		Kind:    req.Kind,
		Version: req.Version,
		Blob:    data,
		Status:  models.StatusOK,
	}
	if err != nil {
		dlErr := &models.DownloadError{URL: req.URL, Key: key, Attempts: attempts, Err: err}
		entry.Status = models.StatusFailed
		entry.Blob = nil
		entry.ErrorMessage = dlErr.Error()

		f.logger.WithFields(map[string]interface{}{
			"key":      key,
			"url":      req.URL,
			"attempts": attempts,
		}).Warn("Resource download failed")
	}

	stored, perr := f.store.Put(ctx, entry)
	if perr != nil {
		return Result{Err: perr.Error()}
	}
	if !stored {
		return Result{Err: models.ErrStoreUnavailable.Error()}
	}

	if err != nil {
		return Result{Err: err.Error()}
	}

	f.logger.WithFields(map[string]interface{}{
		"key":  key,
		"size": len(data),
	}).Debug("Resource stored")

	return Result{OK: true}
}

// fetchWithRetries executes GETs with exponential backoff.
func (f *Fetcher) fetchWithRetries(ctx context.Context, url string, maxAttempts int) ([]byte, error) {
	var lastErr error
	delay := f.retryDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			f.logger.WithFields(map[string]interface{}{
				"attempt": attempt,
				"delay":   delay,
			}).Debug("Retrying download")

			select {
			case <-time.After(delay):
				delay *= 2 // Exponential backoff
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err := f.client.FetchBytes(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}

	return nil, lastErr
}
