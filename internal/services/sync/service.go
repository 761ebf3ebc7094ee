package sync

import (
	"context"
	"fmt"

	"github.com/buildwithkt/wallsync/internal/config"
	"github.com/buildwithkt/wallsync/internal/events"
	"github.com/buildwithkt/wallsync/internal/models"
	"github.com/buildwithkt/wallsync/internal/pool"
	"github.com/buildwithkt/wallsync/internal/settings"
	"github.com/buildwithkt/wallsync/internal/store"
	"github.com/buildwithkt/wallsync/internal/transport"
)

const redownloadConcurrency = 3

// KeepPolicy selects which manifest entry survives a bulk delete. The
// protected entry is a policy decision, not a hardcoded index.
type KeepPolicy func(entries []models.ManifestEntry) string

// KeepFirst protects the first entry of the list. This matches the
// curated-default behavior: the first manifest entry is always available
// as a fallback wallpaper.
func KeepFirst(entries []models.ManifestEntry) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[0].ID
}

// Service is the public surface of the cache/sync core: the sync trigger
// plus the maintenance operations the UI calls.
type Service struct {
	engine   *Engine
	client   *transport.Client
	fetcher  *transport.Fetcher
	assets   *store.AssetStore
	settings *settings.Store
	logger   *events.Logger
	cfg      *config.SyncConfig
}

// NewService creates the sync service.
func NewService(
	client *transport.Client,
	fetcher *transport.Fetcher,
	assets *store.AssetStore,
	settingsStore *settings.Store,
	cfg *config.SyncConfig,
	logger *events.Logger,
) *Service {
	return &Service{
		engine:   NewEngine(client, fetcher, assets, settingsStore, cfg, logger),
		client:   client,
		fetcher:  fetcher,
		assets:   assets,
		settings: settingsStore,
		logger:   logger.WithField("component", "sync_service"),
		cfg:      cfg,
	}
}

// Sync runs one synchronization pass. Concurrent calls are not
// deduplicated here; callers wanting serialization provide it themselves.
func (s *Service) Sync(ctx context.Context) Result {
	return s.engine.Sync(ctx)
}

// StoredManifest returns the manifest persisted by the last successful
// sync, independent of the binary cache's health.
func (s *Service) StoredManifest() (*models.Manifest, error) {
	var manifest models.Manifest
	if err := s.settings.Get(ManifestKey, &manifest); err != nil {
		return nil, fmt.Errorf("read stored manifest: %w", err)
	}
	return &manifest, nil
}

// RedownloadMissing re-fetches every thumbnail from the stored manifest
// whose cache entry is absent or not ok.
func (s *Service) RedownloadMissing(ctx context.Context, concurrency int) []pool.Result[transport.Result] {
	manifest, err := s.StoredManifest()
	if err != nil {
		s.logger.WithError(err).Warn("Redownload skipped, no stored manifest")
		return nil
	}

	var need []models.ManifestEntry
	for _, entry := range manifest.All() {
		if entry.ID == "" || entry.Thumbnail == "" {
			continue
		}
		if !s.assets.Get(ctx, models.ThumbKey(entry.ID)).Cached() {
			need = append(need, entry)
		}
	}
	if len(need) == 0 {
		return nil
	}

	if concurrency <= 0 {
		concurrency = redownloadConcurrency
	}

	s.logger.WithField("count", len(need)).Info("Redownloading missing thumbnails")

	return pool.Run(ctx, need, concurrency,
		func(ctx context.Context, entry models.ManifestEntry) (transport.Result, error) {
			return s.fetcher.Download(ctx, transport.DownloadRequest{
				URL:         s.client.ResolveAssetURL(entry.Thumbnail),
				ID:          entry.ID,
				Kind:        models.KindThumb,
				Version:     entry.Version,
				MaxAttempts: s.cfg.BulkAttempts,
			}), nil
		})
}

// DownloadAsset downloads one entry's full media asset on demand.
func (s *Service) DownloadAsset(ctx context.Context, entry models.ManifestEntry, maxAttempts int) transport.Result {
	if entry.ID == "" {
		return transport.Result{Err: "missing entry id"}
	}

	return s.fetcher.Download(ctx, transport.DownloadRequest{
		URL:         s.client.ResolveAssetURL(entry.Asset),
		ID:          entry.ID,
		Kind:        models.KindMedia,
		Version:     entry.Version,
		MaxAttempts: maxAttempts,
	})
}

// DeleteDownloaded bulk-deletes the cached media for the given wallpaper
// list, keeping the entry chosen by keep (KeepFirst when nil) as an
// undeletable fallback. Only media keys belonging to the list are removed;
// thumbnails and user wallpapers are never touched. Returns the number of
// deleted entries.
func (s *Service) DeleteDownloaded(ctx context.Context, entries []models.ManifestEntry, keep KeepPolicy) int {
	if keep == nil {
		keep = KeepFirst
	}
	protected := keep(entries)

	ids := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.ID != "" {
			ids[entry.ID] = true
		}
	}

	deleted := 0
	for _, key := range s.assets.ListMediaKeys(ctx) {
		id := models.IDOf(key)
		if !ids[id] || id == protected {
			continue
		}
		if s.assets.Delete(ctx, key) {
			deleted++
		}
	}

	if deleted > 0 {
		s.logger.WithFields(map[string]interface{}{
			"deleted":   deleted,
			"protected": protected,
		}).Info("Bulk-deleted downloaded wallpapers")
	}

	return deleted
}
