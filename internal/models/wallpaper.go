package models

import "time"

// User wallpaper media types.
const (
	WallpaperImage = "img"
	WallpaperVideo = "video"
)

// UserWallpaper is a user-uploaded wallpaper with its full payload.
type UserWallpaper struct {
	ID        string    `json:"id"`
	Blob      []byte    `json:"-"`
	ThumbBlob []byte    `json:"-"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// UserWallpaperInfo is the lightweight listing form. It deliberately omits
// the heavy Blob so a grid view can list many wallpapers without loading
// full-resolution payloads.
type UserWallpaperInfo struct {
	ID        string    `json:"id"`
	ThumbBlob []byte    `json:"-"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
