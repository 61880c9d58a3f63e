// Package db provides SQLite persistence for foreman runs.
package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Open opens the SQLite run store, applying pragmas and pending migrations.
// A single connection avoids writer contention; the store is low-traffic.
func Open(path string) (*sql.DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	handle.SetMaxOpenConns(1)
	handle.SetMaxIdleConns(1)

	if err := applyPragmas(handle); err != nil {
		_ = handle.Close()
		return nil, err
	}
	if err := migrate(handle); err != nil {
		_ = handle.Close()
		return nil, err
	}
	return handle, nil
}

func applyPragmas(handle *sql.DB) error {
	for _, stmt := range []string{
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA journal_mode=WAL;",
	} {
		if _, err := handle.Exec(stmt); err != nil {
			// WAL can be unavailable on some filesystems; everything else
			// is required.
			if stmt == "PRAGMA journal_mode=WAL;" {
				log.Warn().Err(err).Msg("sqlite: WAL mode not enabled")
				continue
			}
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}
	return nil
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

func migrate(handle *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(handle, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
