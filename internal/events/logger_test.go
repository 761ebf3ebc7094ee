package events_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwithkt/wallsync/internal/config"
	"github.com/buildwithkt/wallsync/internal/events"
)

func TestNewLogger(t *testing.T) {
	cfg := &config.LogConfig{
		Level:  "debug",
		Format: "json",
		File:   "",
	}

	logger, err := events.NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.InfoLevel, "json", &buf)

	logger.WithField("asset_key", "img-001::thumb").Info("stored")

	output := buf.String()
	assert.Contains(t, output, `"asset_key":"img-001::thumb"`)
	assert.Contains(t, output, `"msg":"stored"`)
	assert.Contains(t, output, `"level":"info"`)
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.InfoLevel, "json", &buf)

	logger.WithFields(map[string]interface{}{
		"id":   "img-001",
		"kind": "media",
	}).Info("download complete")

	output := buf.String()
	assert.Contains(t, output, `"id":"img-001"`)
	assert.Contains(t, output, `"kind":"media"`)
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.WarnLevel, "json", &buf)

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("visible")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "visible")
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	ctx := events.WithLogger(context.Background(), logger)
	ctx = events.WithSyncID(ctx, "sync-42")

	assert.Equal(t, "sync-42", events.GetSyncID(ctx))

	events.FromContext(ctx).Info("from context")
	assert.Contains(t, buf.String(), `"sync_id":"sync-42"`)
}
