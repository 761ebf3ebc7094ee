package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/buildwithkt/wallsync/internal/models"
)

// SaveUserWallpaper stores a user-uploaded wallpaper and returns its id, or
// "" on failure. Passing existingID overwrites that entry in place (used
// when regenerating a thumbnail); otherwise a fresh id is generated. Ids
// are never reused across entries.
func (s *AssetStore) SaveUserWallpaper(ctx context.Context, blob []byte, typ string, thumbBlob []byte, existingID string) string {
	db := s.conns.Get(ctx)
	if db == nil {
		return ""
	}

	id := existingID
	if id == "" {
		id = "user-wall-" + uuid.NewString()
	}

	_, err := db.ExecContext(ctx, `
        INSERT INTO `+tableWallpapers+` (id, blob, thumb_blob, type, timestamp)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            blob = excluded.blob,
            thumb_blob = excluded.thumb_blob,
            type = excluded.type,
            timestamp = excluded.timestamp
    `, id, blob, thumbBlob, typ, time.Now().UTC())

	if err != nil {
		s.logger.WithError(err).WithField("id", id).Warn("User wallpaper write failed")
		return ""
	}

	return id
}

// DeleteUserWallpaper removes a user wallpaper by id.
func (s *AssetStore) DeleteUserWallpaper(ctx context.Context, id string) bool {
	db := s.conns.Get(ctx)
	if db == nil {
		return false
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM `+tableWallpapers+` WHERE id = ?`, id); err != nil {
		s.logger.WithError(err).WithField("id", id).Warn("User wallpaper delete failed")
		return false
	}

	return true
}

// ListUserWallpapers returns the lightweight listing of all user
// wallpapers. The heavy blob column is never read here, so listing a large
// collection for a grid view stays cheap; use GetUserWallpaperByID for the
// full payload.
func (s *AssetStore) ListUserWallpapers(ctx context.Context) []models.UserWallpaperInfo {
	list := make([]models.UserWallpaperInfo, 0)

	db := s.conns.Get(ctx)
	if db == nil {
		return list
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, thumb_blob, type, timestamp
        FROM `+tableWallpapers+`
        ORDER BY timestamp
    `)
	if err != nil {
		s.logger.WithError(err).Warn("User wallpaper listing failed")
		return list
	}
	defer rows.Close()

	for rows.Next() {
		var info models.UserWallpaperInfo
		var ts sql.NullTime
		if err := rows.Scan(&info.ID, &info.ThumbBlob, &info.Type, &ts); err != nil {
			s.logger.WithError(err).Warn("User wallpaper scan failed")
			return list
		}
		if ts.Valid {
			info.Timestamp = ts.Time
		}
		list = append(list, info)
	}
	if err := rows.Err(); err != nil {
		s.logger.WithError(err).Warn("User wallpaper iteration failed")
	}

	return list
}

// GetUserWallpaperByID returns the full wallpaper including its blob, or
// nil when absent or the backend is unavailable.
func (s *AssetStore) GetUserWallpaperByID(ctx context.Context, id string) *models.UserWallpaper {
	db := s.conns.Get(ctx)
	if db == nil {
		return nil
	}

	row := db.QueryRowContext(ctx, `
        SELECT id, blob, thumb_blob, type, timestamp
        FROM `+tableWallpapers+`
        WHERE id = ?
    `, id)

	var w models.UserWallpaper
	var ts sql.NullTime
	err := row.Scan(&w.ID, &w.Blob, &w.ThumbBlob, &w.Type, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logger.WithError(err).WithField("id", id).Warn("User wallpaper read failed")
		return nil
	}
	if ts.Valid {
		w.Timestamp = ts.Time
	}

	return &w
}
