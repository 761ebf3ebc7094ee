package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/buildwithkt/wallsync/internal/config"
	"github.com/buildwithkt/wallsync/internal/events"
	"github.com/buildwithkt/wallsync/internal/models"
	"github.com/buildwithkt/wallsync/internal/pool"
	"github.com/buildwithkt/wallsync/internal/settings"
	"github.com/buildwithkt/wallsync/internal/store"
	"github.com/buildwithkt/wallsync/internal/transport"
)

// ManifestKey is the settings-storage key holding the raw manifest.
const ManifestKey = "wallpaperDB"

// Result is the outcome of a sync run. Failures are reported as values;
// no error or panic escapes Sync.
type Result struct {
	OK  bool
	Err string
}

// Engine implements manifest synchronization: fetch the remote manifest,
// persist it, prune cache entries that disappeared upstream, then download
// priority assets and thumbnails in a staged order so the UI has usable
// content as early as possible.
type Engine struct {
	client   *transport.Client
	fetcher  *transport.Fetcher
	assets   *store.AssetStore
	settings *settings.Store
	logger   *events.Logger
	cfg      *config.SyncConfig
}

// NewEngine creates a sync engine.
func NewEngine(
	client *transport.Client,
	fetcher *transport.Fetcher,
	assets *store.AssetStore,
	settingsStore *settings.Store,
	cfg *config.SyncConfig,
	logger *events.Logger,
) *Engine {
	return &Engine{
		client:   client,
		fetcher:  fetcher,
		assets:   assets,
		settings: settingsStore,
		logger:   logger.WithField("component", "sync_engine"),
		cfg:      cfg,
	}
}

// Sync runs one synchronization pass. Phases run in strict order; after
// manifest validation and persistence, a failing phase is logged and the
// remaining phases still attempt forward progress.
func (e *Engine) Sync(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("panic", fmt.Sprintf("%v", r)).Error("Sync aborted")
			res = Result{Err: fmt.Sprintf("sync panic: %v", r)}
		}
	}()

	logger := e.logger.WithField("sync_id", uuid.NewString()[:8])
	start := time.Now()
	logger.Info("Starting sync")

	// Fetch and validate the remote manifest before committing to it.
	manifest, err := e.client.FetchManifest(ctx)
	if err != nil {
		logger.WithError(err).Warn("Manifest fetch failed")
		return Result{Err: (&models.SyncError{Phase: "fetch", Err: err}).Error()}
	}
	if !manifest.Valid() {
		logger.Warn("Manifest missing version field")
		return Result{Err: models.ErrInvalidManifest.Error()}
	}

	// Previous manifest is best-effort; absence is the fresh-install case.
	prevVersions := make(map[string]string)
	var prev models.Manifest
	if err := e.settings.Get(ManifestKey, &prev); err == nil {
		prevVersions = prev.VersionMap()
	} else if !errors.Is(err, settings.ErrKeyNotFound) {
		logger.WithError(err).Warn("Previous manifest unreadable")
	}

	// The manifest must be readable by the UI even if binary caching
	// fails later, so a failed write fails the whole sync.
	if err := e.settings.Set(ManifestKey, manifest); err != nil {
		logger.WithError(err).Error("Manifest persist failed")
		return Result{Err: (&models.SyncError{Phase: "persist", Err: err}).Error()}
	}

	e.prune(ctx, manifest, logger)
	e.downloadPriority(ctx, manifest.FirstImage(), logger.WithField("phase", "first_image"))
	e.downloadThumbnails(ctx, manifest, prevVersions, logger)
	e.downloadPriority(ctx, manifest.FirstVideo(), logger.WithField("phase", "first_video"))

	logger.WithFields(map[string]interface{}{
		"version":  manifest.Version,
		"duration": time.Since(start),
	}).Info("Sync completed")

	return Result{OK: true}
}

// prune deletes cache entries whose manifest ids disappeared upstream. A
// stale thumbnail key takes its paired media key with it. Best-effort: a
// broken cache lists no keys and nothing is deleted.
func (e *Engine) prune(ctx context.Context, manifest *models.Manifest, logger *events.Logger) {
	existing := e.assets.ListKeys(ctx)
	if len(existing) == 0 {
		return
	}

	wanted := make(map[string]bool)
	for _, entry := range manifest.All() {
		if entry.ID != "" {
			wanted[models.ThumbKey(entry.ID)] = true
		}
	}

	pruned := 0
	for _, key := range existing {
		if models.KindOf(key) != models.KindThumb || wanted[key] {
			continue
		}
		id := models.IDOf(key)
		if e.assets.Delete(ctx, key) {
			pruned++
		}
		if e.assets.Delete(ctx, models.MediaKey(id)) {
			pruned++
		}
	}

	if pruned > 0 {
		logger.WithField("pruned", pruned).Info("Pruned stale cache entries")
	}
}

// downloadPriority synchronously downloads one priority asset (the first
// image or first video) unless an ok-status entry is already cached.
func (e *Engine) downloadPriority(ctx context.Context, entry *models.ManifestEntry, logger *events.Logger) {
	if entry == nil || entry.ID == "" || entry.Asset == "" {
		return
	}

	if e.assets.Get(ctx, models.MediaKey(entry.ID)).Cached() {
		logger.WithField("id", entry.ID).Debug("Priority asset already cached")
		return
	}

	url := e.client.ResolveAssetURL(entry.Asset)
	if url == "" {
		return
	}

	res := e.fetcher.Download(ctx, transport.DownloadRequest{
		URL:         url,
		ID:          entry.ID,
		Kind:        models.KindMedia,
		Version:     entry.Version,
		MaxAttempts: e.cfg.PriorityAttempts,
	})
	if !res.OK {
		logger.WithFields(map[string]interface{}{
			"id":    entry.ID,
			"error": res.Err,
		}).Warn("Priority asset download failed")
	}
}

// downloadThumbnails fetches every thumbnail the new manifest needs,
// skipping entries whose id+version matches the previous manifest and
// whose thumbnail is already ok-cached. Downloads run through the
// concurrency limiter with no ordering guarantee.
func (e *Engine) downloadThumbnails(ctx context.Context, manifest *models.Manifest, prevVersions map[string]string, logger *events.Logger) {
	var candidates []models.ManifestEntry
	for _, entry := range manifest.All() {
		if entry.ID == "" || entry.Asset == "" || entry.Thumbnail == "" {
			continue
		}
		if prevV := prevVersions[entry.ID]; prevV != "" && prevV == entry.Version {
			if e.assets.Get(ctx, models.ThumbKey(entry.ID)).Cached() {
				continue
			}
		}
		candidates = append(candidates, entry)
	}

	if len(candidates) == 0 {
		logger.Debug("All thumbnails up to date")
		return
	}

	logger.WithField("count", len(candidates)).Info("Downloading thumbnails")

	results := pool.Run(ctx, candidates, e.cfg.ThumbConcurrency,
		func(ctx context.Context, entry models.ManifestEntry) (transport.Result, error) {
			url := e.client.ResolveAssetURL(entry.Thumbnail)
			if url == "" {
				return transport.Result{Err: "unresolvable thumbnail url"}, nil
			}
			return e.fetcher.Download(ctx, transport.DownloadRequest{
				URL:         url,
				ID:          entry.ID,
				Kind:        models.KindThumb,
				Version:     entry.Version,
				MaxAttempts: e.cfg.BulkAttempts,
			}), nil
		})

	failed := 0
	for _, r := range results {
		if r.Err != nil || !r.Value.OK {
			failed++
		}
	}
	if failed > 0 {
		logger.WithField("failed", failed).Warn("Some thumbnail downloads failed")
	}
}
