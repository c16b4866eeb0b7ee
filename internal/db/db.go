// Package db runs the embedded schema migrations shared by the SQL adapters.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

// goose keeps its dialect, base FS and logger in package state.
var gooseMu sync.Mutex

// Migrate applies every pending migration found in dir of fsys.
// dialect is a goose dialect name such as "postgres" or "sqlite3".
func Migrate(ctx context.Context, sqlDB *sql.DB, dialect string, fsys fs.FS, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(slogGooseLogger{})
	goose.SetTableName("schema_migrations")

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrate: dialect %s: %w", dialect, err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// slogGooseLogger forwards goose output to slog. Fatalf does not exit; the
// error is returned from Migrate instead.
type slogGooseLogger struct{}

func (slogGooseLogger) Printf(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "migrate")
}

func (slogGooseLogger) Fatalf(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...), "component", "migrate")
}
