package transport

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwithkt/wallsync/internal/events"
	"github.com/buildwithkt/wallsync/internal/models"
	"github.com/buildwithkt/wallsync/internal/store"
)

func newTestFetcher(t *testing.T, serverURL string) (*Fetcher, *store.AssetStore) {
	t.Helper()
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	conns := store.NewConnManager(filepath.Join(t.TempDir(), "assets.db"), logger)
	t.Cleanup(func() { _ = conns.Close() })
	assets := store.NewAssetStore(conns, logger)

	fetcher := NewFetcher(newTestClient(t, serverURL), assets, logger)
	fetcher.retryDelay = time.Millisecond
	return fetcher, assets
}

func TestDownloadStoresOKEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	fetcher, assets := newTestFetcher(t, server.URL)

	res := fetcher.Download(context.Background(), DownloadRequest{
		URL:     server.URL + "/a1.jpg",
		ID:      "img-1",
		Kind:    models.KindMedia,
		Version: "3",
	})
	assert.True(t, res.OK)
	assert.Empty(t, res.Err)

	entry := assets.Get(context.Background(), "img-1::media")
	require.NotNil(t, entry)
	assert.Equal(t, models.StatusOK, entry.Status)
	assert.Equal(t, []byte("payload"), entry.Blob)
	assert.Equal(t, "3", entry.Version)
}

func TestDownloadRetriesUntilSuccess(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("eventually"))
	}))
	defer server.Close()

	fetcher, assets := newTestFetcher(t, server.URL)

	res := fetcher.Download(context.Background(), DownloadRequest{
		URL:         server.URL,
		ID:          "img-2",
		Kind:        models.KindThumb,
		MaxAttempts: 3,
	})
	assert.True(t, res.OK)
	assert.Equal(t, int32(3), hits.Load())
	assert.True(t, assets.Get(context.Background(), "img-2::thumb").Cached())
}

func TestDownloadExhaustionStoresFailedMarker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher, assets := newTestFetcher(t, server.URL)

	res := fetcher.Download(context.Background(), DownloadRequest{
		URL:         server.URL,
		ID:          "img-3",
		Kind:        models.KindThumb,
		MaxAttempts: 2,
	})
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Err)
	assert.Equal(t, int32(2), hits.Load())

	// The failed marker is distinguishable from both "not yet downloaded"
	// and "downloaded and ok".
	entry := assets.Get(context.Background(), "img-3::thumb")
	require.NotNil(t, entry)
	assert.Equal(t, models.StatusFailed, entry.Status)
	assert.False(t, entry.Cached())
	assert.Empty(t, entry.Blob)
	assert.NotEmpty(t, entry.ErrorMessage)
}

func TestDownloadValidatesRequest(t *testing.T) {
	fetcher, _ := newTestFetcher(t, "http://127.0.0.1:0")

	assert.Equal(t, "missing url", fetcher.Download(context.Background(), DownloadRequest{ID: "x"}).Err)
	assert.Equal(t, "missing id", fetcher.Download(context.Background(), DownloadRequest{URL: "http://x"}).Err)
}

func TestDownloadContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher, _ := newTestFetcher(t, server.URL)
	fetcher.retryDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := fetcher.Download(ctx, DownloadRequest{URL: server.URL, ID: "img-4", Kind: models.KindThumb, MaxAttempts: 5})
	assert.False(t, res.OK)
}
