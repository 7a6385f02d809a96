// Package store keeps zoebot's per-identity session records in a SQLite
// file so credentials and token prompts survive restarts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/soyeahso/zoebot/internal/logging"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// pragmas run on every new database handle, in order.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// DB is the session database.
type DB struct {
	sql  *sql.DB
	path string
	log  *logging.Logger
}

// Open opens the session database at path, creating the file and its
// directory on first use, and brings the schema up to date.
func Open(path string, log *logging.Logger) (*DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating session db directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	// One writer. This also keeps an in-memory database on a single
	// connection.
	sqlDB.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	db := &DB{sql: sqlDB, path: path, log: log.Sub("store")}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating session db: %w", err)
	}

	db.log.Info().Str("path", path).Msg("session db ready")
	return db, nil
}

func (db *DB) Close() error {
	db.log.Debug().Msg("closing session db")
	return db.sql.Close()
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) Ping(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

// SchemaVersion returns the newest applied migration, 0 for none.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v sql.NullInt64
	if err := db.sql.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return int(v.Int64), nil
}

// migrate applies every migration newer than the recorded ones, each in
// its own transaction together with its schema_migrations row.
func (db *DB) migrate() error {
	if _, err := db.sql.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	applied, err := db.appliedVersions()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		db.log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		if err := db.apply(m); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) appliedVersions() (map[int]bool, error) {
	rows, err := db.sql.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("listing migrations: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (db *DB) apply(m migration) error {
	tx, err := db.sql.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
		return fmt.Errorf("migration %d: recording: %w", m.Version, err)
	}
	return tx.Commit()
}
