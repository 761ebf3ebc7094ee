package transport

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwithkt/wallsync/internal/config"
	"github.com/buildwithkt/wallsync/internal/events"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	return NewClient(&config.APIConfig{
		BaseURL:     serverURL,
		ManifestURL: serverURL + "/wallpaper.json",
		Timeout:     5 * time.Second,
		UserAgent:   "wallsync-test",
	}, logger)
}

func TestFetchManifest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallpaper.json", r.URL.Path)
		assert.Equal(t, "wallsync-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{
            "version": "2",
            "images": [{"id": "img-1", "version": "1", "thumbnail": "t1.jpg", "asset": "a1.jpg"}],
            "videos": []
        }`))
	}))
	defer server.Close()

	manifest, err := newTestClient(t, server.URL).FetchManifest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2", manifest.Version)
	require.Len(t, manifest.Images, 1)
	assert.Equal(t, "img-1", manifest.Images[0].ID)
	assert.Empty(t, manifest.Videos)
}

func TestFetchManifestErrors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).FetchManifest(context.Background())
		assert.ErrorContains(t, err, "HTTP 500")
	})

	t.Run("invalid json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).FetchManifest(context.Background())
		assert.ErrorContains(t, err, "parse manifest")
	})
}

func TestResolveAssetURL(t *testing.T) {
	client := newTestClient(t, "https://assets.example.com")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"relative path", "/thumbs/img-1.jpg", "https://assets.example.com/thumbs/img-1.jpg"},
		{"absolute url", "https://cdn.example.com/x.jpg", "https://cdn.example.com/x.jpg"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.ResolveAssetURL(tt.in))
		})
	}
}
