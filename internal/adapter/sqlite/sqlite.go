// Package sqlite implements the domain repositories on a local SQLite file.
// It is the default durable store: the record slots live next to the user
// and sessions tables in one database file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bbt/internal/db"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

//go:embed migrations/*.sql
var migrations embed.FS

const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"

// DB wraps a *sql.DB opened on a SQLite file.
type DB struct {
	sql *sql.DB
}

// Open creates the parent directory if needed, opens the database at path
// and runs migrations.
func Open(path string) (*DB, error) {
	if path == "" {
		path = "bbt.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	s, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps write-through saves strictly ordered.
	s.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := db.Migrate(ctx, s, "sqlite3", migrations, "migrations"); err != nil {
		_ = s.Close()
		return nil, err
	}
	return &DB{sql: s}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}
