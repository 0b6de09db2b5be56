package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store owns the on-device SQLite database: the domain record tables, the van
// and fuel-rate caches, and the outbox queue. It is the durable source of
// truth for everything the user recorded, whether or not it has synced yet.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies migrations.
// Safe to call on an existing database; all schema statements are idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite allows a single writer; serialize access through one connection
	// to avoid SQLITE_BUSY under concurrent store calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Reset wipes every table. Intended for tests and explicit local-data resets.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"vans", "fuel_rates", "deliveries", "intakes", "outbox"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return storageErr("reset "+table, err)
		}
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return err
	}

	// Additive columns for databases created before the intake source fields
	// existed. SQLite has no ADD COLUMN IF NOT EXISTS, so a duplicate-column
	// failure counts as already applied.
	additive := []string{
		"ALTER TABLE intakes ADD COLUMN source_type TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE intakes ADD COLUMN source_name TEXT NOT NULL DEFAULT ''",
	}
	for _, stmt := range additive {
		if _, err := db.Exec(stmt); err != nil && !isDuplicateColumn(err) {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}

// now returns the wall-clock timestamp recorded on rows. The format trims
// trailing fractional zeros, so it does not sort lexicographically; list
// queries order by local_id, which is monotonic with creation.
func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t
	}
	return time.Time{}
}
