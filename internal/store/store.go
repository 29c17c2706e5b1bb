// Package store provides the durable on-device storage layer for scorepad.
//
// Every write a judge makes while offline lands here first: the offline
// queue holds not-yet-delivered mutations, cached_scores shadows the
// judge's own scoring decisions, cached_submissions holds reference data
// for offline display, and app_state holds small keyed blobs such as the
// session token.
//
// The database runs in embedded mode (ncruces/go-sqlite3) with WAL for
// concurrent reads. The store is an explicit, caller-owned handle: open
// it once at startup, pass it by reference to the dispatcher and the
// syncer, and close it on shutdown.
//
// Schema:
//   - offline_queue: deferred mutations, drained oldest-first
//   - cached_scores: one row per (submission, criterion, seat)
//   - cached_submissions: read-only snapshots, keyed by submission id
//   - app_state: arbitrary keyed values
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// StorageError wraps a failure of the underlying SQLite layer (I/O error,
// quota, corruption). Callers must treat it as distinct from transport
// errors: a StorageError during enqueue means the write was NOT saved.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// timeFormat is the canonical timestamp encoding for TEXT columns.
// RFC3339Nano sorts lexicographically in chronological order.
const timeFormat = time.RFC3339Nano

// Store wraps the SQLite connection with scorepad-specific collections.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a database connection at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// If the file doesn't exist it is created; call InitSchema before first
// use. The caller MUST call Close() when done.
//
// Example:
//
//	st, err := store.Open(".scorepad/scorepad.db")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storageErr("create directory", err)
	}

	connStr := fmt.Sprintf("file:%s", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, storageErr("open", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, storageErr("ping", err)
	}

	// Single writer process, but CLI + syncer + dashboard share the handle
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	st := &Store{
		conn: conn,
		path: path,
	}

	if _, err := st.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = st.Close()
		return nil, storageErr("enable WAL", err)
	}

	if _, err := st.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = st.Close()
		return nil, storageErr("set busy timeout", err)
	}

	return st, nil
}

// Path returns the database file path.
func (st *Store) Path() string {
	return st.path
}

// Close closes the database connection.
// Performs a WAL checkpoint so queued writes survive a device power-off.
func (st *Store) Close() error {
	if st.conn == nil {
		return nil
	}

	if _, err := st.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := st.conn.Close(); err != nil {
		return storageErr("close", err)
	}

	st.conn = nil
	return nil
}

// InitSchema creates the collections and indexes if they don't exist.
// Idempotent - safe to call on every startup.
func (st *Store) InitSchema() error {
	return st.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (st *Store) InitSchemaContext(ctx context.Context) error {
	schema := `
	-- Deferred mutations awaiting delivery. rowid breaks enqueued_at ties
	-- so the drain preserves the judge's write order.
	CREATE TABLE IF NOT EXISTS offline_queue (
		id TEXT PRIMARY KEY,
		method TEXT NOT NULL,
		target TEXT NOT NULL,
		payload TEXT,
		enqueued_at TEXT NOT NULL,
		retry_count INTEGER NOT NULL DEFAULT 0
	);

	-- Local shadow of the judge's own scoring decisions.
	-- key is the deterministic composite (submission|criterion|seat),
	-- so resubmitting the same identity overwrites instead of duplicating.
	CREATE TABLE IF NOT EXISTS cached_scores (
		key TEXT PRIMARY KEY,
		submission_id TEXT NOT NULL,
		criterion_id TEXT NOT NULL,
		seat_id TEXT NOT NULL,
		phase TEXT NOT NULL,
		score_value REAL NOT NULL,
		comment TEXT,
		sync_status TEXT NOT NULL DEFAULT 'pending',
		updated_at TEXT NOT NULL
	);

	-- Read-only reference snapshots for offline display.
	CREATE TABLE IF NOT EXISTS cached_submissions (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		team_name TEXT NOT NULL,
		title TEXT,
		status TEXT NOT NULL,
		cached_at TEXT NOT NULL
	);

	-- Small keyed blobs (session token, device registration).
	CREATE TABLE IF NOT EXISTS app_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_queue_enqueued
	    ON offline_queue(enqueued_at);

	CREATE INDEX IF NOT EXISTS idx_scores_submission
	    ON cached_scores(submission_id);
	CREATE INDEX IF NOT EXISTS idx_scores_status
	    ON cached_scores(sync_status);
	CREATE INDEX IF NOT EXISTS idx_scores_updated
	    ON cached_scores(updated_at);

	CREATE INDEX IF NOT EXISTS idx_submissions_category
	    ON cached_submissions(category_id);
	`

	if _, err := st.conn.ExecContext(ctx, schema); err != nil {
		return storageErr("init schema", err)
	}

	return nil
}

// ClearAll empties every collection. Used on logout/reset only.
func (st *Store) ClearAll(ctx context.Context) error {
	for _, table := range []string{"offline_queue", "cached_scores", "cached_submissions", "app_state"} {
		if _, err := st.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return storageErr("clear "+table, err)
		}
	}
	return nil
}
