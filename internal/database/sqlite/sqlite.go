// Package sqlite is the embedded store backend used by single-kiosk
// deployments. It keeps one connection open and funnels every write through
// a single worker goroutine, which serializes the ledger's check-then-insert
// sequence without database-level locks.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store implements database.Store on an embedded SQLite file.
type Store struct {
	db     *sql.DB
	writes *writer
}

// Open creates (or opens) the database at path, applies pragmas and
// migrations, and starts the write worker. Use ":memory:" style DSNs only
// through OpenDSN; Open expects a filesystem path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		path,
	)
	return OpenDSN(ctx, dsn)
}

// OpenDSN opens a store from a raw modernc.org/sqlite DSN. Tests use this
// with in-memory databases.
func OpenDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite safety in a server process: exactly one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, writes: newWriter(db)}
	slog.Debug("sqlite store ready")
	return s, nil
}

// Close stops the write worker and closes the database.
func (s *Store) Close() error {
	s.writes.close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
