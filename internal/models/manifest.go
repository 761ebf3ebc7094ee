package models

// Manifest describes the wallpaper entries available upstream. It is
// replaced wholesale on each successful sync, never partially merged.
type Manifest struct {
	Version string          `json:"version"`
	Images  []ManifestEntry `json:"images"`
	Videos  []ManifestEntry `json:"videos"`
}

// ManifestEntry is one remote wallpaper. Thumbnail and Asset may be
// relative paths resolved against the configured base URL.
type ManifestEntry struct {
	ID        string `json:"id"`
	Version   string `json:"version"`
	Name      string `json:"name,omitempty"`
	Thumbnail string `json:"thumbnail"`
	Asset     string `json:"asset"`
}

// Valid reports whether the manifest carries the required version field.
func (m *Manifest) Valid() bool {
	return m != nil && m.Version != ""
}

// All returns images followed by videos.
func (m *Manifest) All() []ManifestEntry {
	if m == nil {
		return nil
	}
	all := make([]ManifestEntry, 0, len(m.Images)+len(m.Videos))
	all = append(all, m.Images...)
	all = append(all, m.Videos...)
	return all
}

// FirstImage returns the priority image entry, or nil.
func (m *Manifest) FirstImage() *ManifestEntry {
	if m == nil || len(m.Images) == 0 {
		return nil
	}
	return &m.Images[0]
}

// FirstVideo returns the priority video entry, or nil.
func (m *Manifest) FirstVideo() *ManifestEntry {
	if m == nil || len(m.Videos) == 0 {
		return nil
	}
	return &m.Videos[0]
}

// VersionMap returns id -> version for every entry with an id.
func (m *Manifest) VersionMap() map[string]string {
	versions := make(map[string]string)
	if m == nil {
		return versions
	}
	for _, e := range m.All() {
		if e.ID != "" {
			versions[e.ID] = e.Version
		}
	}
	return versions
}
