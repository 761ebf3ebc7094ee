package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/buildwithkt/wallsync/internal/events"
	"github.com/buildwithkt/wallsync/internal/models"
)

// AssetStore is the typed key-value interface over the thumbnail and media
// partitions. The cache is best-effort: every operation converts backend
// failure into a nil/false/empty return instead of an error, so callers can
// treat "cache unavailable" as a normal steady state and fall back to
// remote URLs.
type AssetStore struct {
	conns  *ConnManager
	logger *events.Logger
}

// NewAssetStore creates an asset store over the given connection manager.
func NewAssetStore(conns *ConnManager, logger *events.Logger) *AssetStore {
	return &AssetStore{
		conns:  conns,
		logger: logger.WithField("component", "asset_store"),
	}
}

// tableForKey applies the routing rule: keys with the thumbnail suffix go
// to the thumbs partition, everything else to media.
func tableForKey(key string) string {
	if models.KindOf(key) == models.KindThumb {
		return tableThumbs
	}
	return tableMedia
}

// Get returns the cached entry for key, or nil when the entry is absent or
// the backend is unavailable.
func (s *AssetStore) Get(ctx context.Context, key string) *models.Entry {
	db := s.conns.Get(ctx)
	if db == nil {
		return nil
	}

	row := db.QueryRowContext(ctx, `
        SELECT key, id, version, blob, status, error_message, updated_at
        FROM `+tableForKey(key)+`
        WHERE key = ?
    `, key)

	var entry models.Entry
	var id, version, errMsg sql.NullString
	var updatedAt sql.NullTime

	err := row.Scan(&entry.Key, &id, &version, &entry.Blob, &entry.Status, &errMsg, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		return nil
	}

	entry.ID = id.String
	entry.Version = version.String
	entry.ErrorMessage = errMsg.String
	entry.Kind = models.KindOf(entry.Key)
	if updatedAt.Valid {
		entry.UpdatedAt = updatedAt.Time
	}

	return &entry
}

// Put stores an entry, overwriting any previous value for its key. A missing
// key is a caller bug and is reported synchronously as ErrMissingKey; backend
// failures are reported as (false, nil).
func (s *AssetStore) Put(ctx context.Context, entry *models.Entry) (bool, error) {
	if entry == nil || entry.Key == "" {
		return false, models.ErrMissingKey
	}

	db := s.conns.Get(ctx)
	if db == nil {
		return false, nil
	}

	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
        INSERT INTO `+tableForKey(entry.Key)+` (key, id, version, blob, status, error_message, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET
            id = excluded.id,
            version = excluded.version,
            blob = excluded.blob,
            status = excluded.status,
            error_message = excluded.error_message,
            updated_at = excluded.updated_at
    `, entry.Key, entry.ID, entry.Version, entry.Blob, entry.Status, entry.ErrorMessage, updatedAt)

	if err != nil {
		s.logger.WithError(err).WithField("key", entry.Key).Warn("Cache write failed")
		return false, nil
	}

	s.logger.WithFields(map[string]interface{}{
		"key":    entry.Key,
		"status": entry.Status,
		"size":   len(entry.Blob),
	}).Debug("Cache entry stored")

	return true, nil
}

// Delete removes the entry for key. Deleting an absent key succeeds.
func (s *AssetStore) Delete(ctx context.Context, key string) bool {
	db := s.conns.Get(ctx)
	if db == nil {
		return false
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM `+tableForKey(key)+` WHERE key = ?`, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache delete failed")
		return false
	}

	return true
}

// ListKeys returns the union of the thumbnail and media partition keys.
// It returns nil when the backend is unavailable, as opposed to an empty
// slice meaning "cache operational but empty".
func (s *AssetStore) ListKeys(ctx context.Context) []string {
	db := s.conns.Get(ctx)
	if db == nil {
		return nil
	}

	keys := make([]string, 0)
	keys = append(keys, s.partitionKeys(ctx, db, tableThumbs)...)
	keys = append(keys, s.partitionKeys(ctx, db, tableMedia)...)
	return keys
}

// ListMediaKeys returns the keys of the media partition only. Nil when the
// backend is unavailable.
func (s *AssetStore) ListMediaKeys(ctx context.Context) []string {
	db := s.conns.Get(ctx)
	if db == nil {
		return nil
	}

	keys := make([]string, 0)
	keys = append(keys, s.partitionKeys(ctx, db, tableMedia)...)
	return keys
}

// partitionKeys lists one partition, treating query failure as empty.
func (s *AssetStore) partitionKeys(ctx context.Context, db *sql.DB, table string) []string {
	rows, err := db.QueryContext(ctx, `SELECT key FROM `+table+` ORDER BY key`)
	if err != nil {
		s.logger.WithError(err).WithField("partition", table).Warn("Cache key listing failed")
		return nil
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			s.logger.WithError(err).Warn("Cache key scan failed")
			return nil
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		s.logger.WithError(err).Warn("Cache key iteration failed")
		return nil
	}

	return keys
}
