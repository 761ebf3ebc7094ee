package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwithkt/wallsync/internal/events"
)

func testLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

func TestConnManagerOpensAndReuses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.db")
	m := NewConnManager(path, testLogger())
	defer m.Close()

	db := m.Get(context.Background())
	require.NotNil(t, db)
	assert.Equal(t, 1, m.openAttempts)

	// Second call reuses the handle without a new attempt.
	db2 := m.Get(context.Background())
	assert.Same(t, db, db2)
	assert.Equal(t, 1, m.openAttempts)
}

func TestConnManagerInvalidateReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.db")
	m := NewConnManager(path, testLogger())
	defer m.Close()

	first := m.Get(context.Background())
	require.NotNil(t, first)

	m.Invalidate()

	second := m.Get(context.Background())
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, m.openAttempts)
}

func TestConnManagerDeadAfterExhaustedRecovery(t *testing.T) {
	// A non-empty directory at the database path defeats both the retries
	// and the delete-and-recreate fallback.
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.db")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0700))

	m := NewConnManager(path, testLogger())
	m.retryDelay = time.Millisecond

	assert.Nil(t, m.Get(context.Background()))
	assert.True(t, m.dead)

	// 3 retry attempts plus one recreate attempt.
	attempts := m.openAttempts
	assert.Equal(t, maxOpenAttempts+1, attempts)

	// Dead mode fast-fails without further open attempts.
	for i := 0; i < 5; i++ {
		assert.Nil(t, m.Get(context.Background()))
	}
	assert.Equal(t, attempts, m.openAttempts)
}

func TestConnManagerDeleteAndRecreateRecovers(t *testing.T) {
	// An empty directory at the path fails the open attempts but can be
	// removed by the last-resort fallback, after which open succeeds.
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.db")
	require.NoError(t, os.Mkdir(path, 0700))

	m := NewConnManager(path, testLogger())
	m.retryDelay = time.Millisecond
	defer m.Close()

	db := m.Get(context.Background())
	require.NotNil(t, db)
	assert.False(t, m.dead)
	assert.Equal(t, maxOpenAttempts+1, m.openAttempts)
}

func TestConnManagerConcurrentCallersShareAttempt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.db")
	m := NewConnManager(path, testLogger())
	defer m.Close()

	results := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			results <- m.Get(context.Background()) != nil
		}()
	}
	for i := 0; i < 10; i++ {
		assert.True(t, <-results)
	}

	assert.Equal(t, 1, m.openAttempts)
}

func TestSchemaVersion(t *testing.T) {
	assert.Equal(t, 105, SchemaVersion())
}
