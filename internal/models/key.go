package models

import "strings"

// Kind identifies which cache partition an asset key routes to.
type Kind string

const (
	// KindThumb routes to the thumbnail partition.
	KindThumb Kind = "thumb"
	// KindMedia routes to the full-media partition.
	KindMedia Kind = "media"
)

const keySeparator = "::"

// Key builds the cache key for an asset id and kind, e.g. "img-001::thumb".
func Key(id string, kind Kind) string {
	return id + keySeparator + string(kind)
}

// ThumbKey returns the thumbnail key for an asset id.
func ThumbKey(id string) string { return Key(id, KindThumb) }

// MediaKey returns the full-media key for an asset id.
func MediaKey(id string) string { return Key(id, KindMedia) }

// KindOf returns the partition a key routes to. Keys without the thumbnail
// suffix route to the media partition. Every component that constructs or
// inspects keys must go through this.
func KindOf(key string) Kind {
	if strings.HasSuffix(key, keySeparator+string(KindThumb)) {
		return KindThumb
	}
	return KindMedia
}

// IDOf strips the kind suffix from a key.
func IDOf(key string) string {
	if idx := strings.Index(key, keySeparator); idx >= 0 {
		return key[:idx]
	}
	return key
}
