package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"

	"github.com/buildwithkt/wallsync/internal/config"
	"github.com/buildwithkt/wallsync/internal/events"
	"github.com/buildwithkt/wallsync/internal/models"
)

// Client handles HTTP communication with the manifest and asset endpoints.
type Client struct {
	client      *http.Client
	baseURL     string
	manifestURL string
	userAgent   string
	logger      *events.Logger
}

// NewClient creates an HTTP client.
func NewClient(cfg *config.APIConfig, logger *events.Logger) *Client {
	// Create transport with HTTP/2 support
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			NextProtos: []string{"h2", "http/1.1"},
		},
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		logger.WithError(err).Warn("Failed to configure HTTP/2")
	}

	return &Client{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:     cfg.BaseURL,
		manifestURL: cfg.ManifestURL,
		userAgent:   cfg.UserAgent,
		logger:      logger.WithField("component", "http_client"),
	}
}

// FetchManifest downloads and parses the remote wallpaper manifest.
func (c *Client) FetchManifest(ctx context.Context) (*models.Manifest, error) {
	body, err := c.FetchBytes(ctx, c.manifestURL)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}

	var manifest models.Manifest
	if err := json.Unmarshal(body, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"version": manifest.Version,
		"images":  len(manifest.Images),
		"videos":  len(manifest.Videos),
	}).Debug("Fetched manifest")

	return &manifest, nil
}

// FetchBytes performs a single GET and returns the response body. Each call
// is bounded by the client timeout.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return data, nil
}

// ResolveAssetURL resolves a manifest thumbnail/asset reference, which may
// be a relative path, against the configured base URL. Returns "" when the
// reference cannot be resolved.
func (c *Client) ResolveAssetURL(pathOrURL string) string {
	if pathOrURL == "" {
		return ""
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}

	ref, err := url.Parse(pathOrURL)
	if err != nil {
		c.logger.WithField("ref", pathOrURL).Warn("Unresolvable asset reference")
		return ""
	}

	return base.ResolveReference(ref).String()
}
