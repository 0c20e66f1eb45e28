// Package store implements the embedded relational store (spec.md §4.1,
// component C1): schema, migrations, and the narrow operations every other
// component builds on. It is backed by github.com/ncruces/go-sqlite3, the
// pure-Go SQLite engine the host repo already depends on for its own
// storage layer.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/remem-dev/remem/internal/gates"
)

// Sentinel errors, following the host repo's internal/storage sentinel
// convention (ErrDBNotInitialized).
var (
	ErrNotInitialized = errors.New("store: not initialized")
	ErrLeaseConflict  = errors.New("store: lease conflict")
	ErrAckMismatch    = errors.New("store: delete_claimed count mismatch")
)

// Store wraps the database handle plus the path it was opened from.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the database at dataDir/remem.db,
// enables WAL + foreign keys, and runs any pending migrations. The first
// process to reach a fresh dataDir holds a host-local file lock for the
// duration of schema creation so concurrent hook invocations never race
// on CREATE TABLE (spec.md §5 "Concurrency & Resource Model").
func Open(ctx context.Context, dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	bootstrapLock, err := gates.AcquireBootstrapLock(dataDir)
	if err != nil {
		return nil, fmt.Errorf("store: acquire bootstrap lock: %w", err)
	}
	defer func() { _ = bootstrapLock.Unlock() }()

	path := filepath.Join(dataDir, "remem.db")
	connStr := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_txlock=immediate", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer discipline; SQLite + WAL tolerates concurrent readers via separate handles

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens the database strictly for reads, used by the mcp
// command's Searcher, so a missing database yields an error on first
// query instead of implicitly creating one.
func OpenReadOnly(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "remem.db")
	connStr := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open readonly: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying handle for components that need direct access
// (Queue, Gates, Searcher) without re-deriving the connection string.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying handle.
func (s *Store) Close() error { return s.db.Close() }

// RunInTransaction runs fn inside a single BEGIN IMMEDIATE transaction,
// committing on nil return and rolling back otherwise — the same contract
// the host repo's storage.Storage.RunInTransaction documents.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// Now returns the current Unix epoch as seen by SQLite, so callers that
// need "now" for a comparison already expressed in SQL stay consistent
// with rows written via strftime('%s','now').
func Now(ctx context.Context, db *sql.DB) (int64, error) {
	var epoch int64
	err := db.QueryRowContext(ctx, "SELECT CAST(strftime('%s','now') AS INTEGER)").Scan(&epoch)
	return epoch, err
}
