package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/buildwithkt/wallsync/internal/config"
	"github.com/buildwithkt/wallsync/internal/events"
)

// Partition table names.
const (
	tableThumbs     = "thumbs"
	tableMedia      = "media"
	tableWallpapers = "wallpapers"
)

const maxOpenAttempts = 3

// ConnManager owns the lifecycle of the single SQLite connection backing
// the asset cache. Transient open failures are retried with linear backoff;
// after the retries and a delete-and-recreate fallback are exhausted the
// backend is marked dead for the rest of the process, and Get returns nil
// immediately. Callers never see an error from Get.
type ConnManager struct {
	path   string
	logger *events.Logger

	// mu serializes connection attempts, so concurrent Get callers share
	// a single attempt.
	mu     sync.Mutex
	handle *sql.DB
	dead   bool

	retryDelay   time.Duration
	openAttempts int
}

// NewConnManager creates a connection manager for the cache at path.
func NewConnManager(path string, logger *events.Logger) *ConnManager {
	return &ConnManager{
		path:       path,
		logger:     logger.WithField("component", "conn_manager"),
		retryDelay: 150 * time.Millisecond,
	}
}

// Get returns the open connection, opening it on first use. It returns nil
// once the backend has been declared dead; callers must treat that as the
// normal degraded steady state.
func (m *ConnManager) Get(ctx context.Context) *sql.DB {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dead {
		return nil
	}
	if m.handle != nil {
		return m.handle
	}

	db, fatal := m.connectWithRetry(ctx)
	if db == nil {
		if fatal {
			m.dead = true
			m.logger.Warn("Asset cache unavailable, entering degraded mode")
		}
		return nil
	}

	m.handle = db
	return db
}

// Invalidate closes the current handle so the next Get reopens from
// scratch. Used when another process requests exclusive schema access.
func (m *ConnManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		_ = m.handle.Close()
		m.handle = nil
	}
}

// Close releases the connection.
func (m *ConnManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil {
		return nil
	}
	err := m.handle.Close()
	m.handle = nil
	return err
}

// connectWithRetry runs the open sequence. The second return value reports
// whether the failure is permanent (all recovery exhausted) as opposed to a
// context cancellation.
func (m *ConnManager) connectWithRetry(ctx context.Context) (*sql.DB, bool) {
	var lastErr error

	for attempt := 1; attempt <= maxOpenAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Duration(attempt) * m.retryDelay):
			case <-ctx.Done():
				return nil, false
			}
		}

		db, err := m.open()
		if err == nil {
			return db, false
		}
		lastErr = err

		m.logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		}).Debug("Cache open failed")
	}

	// Last resort: delete and recreate the entire backing store once.
	m.logger.WithError(lastErr).Warn("Cache open retries exhausted, recreating store")
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		m.logger.WithError(err).Debug("Cache file removal failed")
	}

	db, err := m.open()
	if err == nil {
		return db, false
	}

	m.logger.WithError(err).Error("Cache recreate failed")
	return nil, true
}

// open opens the database and initializes the schema.
func (m *ConnManager) open() (*sql.DB, error) {
	m.openAttempts++

	db, err := sql.Open("sqlite3", m.path+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates the three partitions. Check-before-create throughout,
// so repeated opens at the same schema version never fail.
func initSchema(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS thumbs (
        key TEXT PRIMARY KEY,
        id TEXT,
        version TEXT,
        blob BLOB,
        status TEXT NOT NULL,
        error_message TEXT,
        updated_at TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS media (
        key TEXT PRIMARY KEY,
        id TEXT,
        version TEXT,
        blob BLOB,
        status TEXT NOT NULL,
        error_message TEXT,
        updated_at TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS wallpapers (
        id TEXT PRIMARY KEY,
        blob BLOB,
        thumb_blob BLOB,
        type TEXT NOT NULL,
        timestamp TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := db.Exec(schema, SchemaVersion()); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// SchemaVersion derives the cache schema version from the application
// version: major*100 + minor*10 + patch, e.g. "1.0.5" -> 105.
func SchemaVersion() int {
	parts := strings.Split(config.Version, ".")
	mult := []int{100, 10, 1}

	version := 0
	for i := 0; i < len(mult) && i < len(parts); i++ {
		n, _ := strconv.Atoi(parts[i])
		version += n * mult[i]
	}
	return version
}
