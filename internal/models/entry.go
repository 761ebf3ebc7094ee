package models

import "time"

// Entry status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one cached binary in the thumbnail or media partition.
type Entry struct {
	Key          string    `json:"key"`
	Blob         []byte    `json:"-"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ID           string    `json:"id,omitempty"`
	Kind         Kind      `json:"kind,omitempty"`
	Version      string    `json:"version,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Cached reports whether the entry holds a usable blob. A nil entry or a
// failed-download marker is not cached.
func (e *Entry) Cached() bool {
	return e != nil && e.Status == StatusOK
}
