// Package store persists bills and the in-progress draft in a local SQLite
// file.
//
// Saved bills live in the bills table as JSON documents next to the columns
// used for lookups (document type, bill number, save time). Trashing a bill
// sets trashed_at; trashed bills are invisible to Load, List and
// FindByNumber until restored. The editor draft lives in a single row of the
// drafts table.
//
// All writes are synchronous. A failed write is returned to the caller and
// never retried.
package store

import (
	"context"
	"errors"
	"fmt"

	"billbook/internal/logger"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a bill or draft does not exist.
var ErrNotFound = errors.New("record not found")

// ErrMissingID is returned when saving a bill without an id.
var ErrMissingID = errors.New("bill record has no id")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS bills (
        id TEXT PRIMARY KEY,
        document_type TEXT NOT NULL,
        bill_number TEXT NOT NULL,
        saved_at INTEGER NOT NULL,
        trashed_at INTEGER,
        data TEXT NOT NULL
    );`,
	`CREATE INDEX IF NOT EXISTS bills_type_number ON bills (document_type, bill_number);`,
	`CREATE TABLE IF NOT EXISTS drafts (
        slot TEXT PRIMARY KEY,
        data TEXT NOT NULL,
        updated_at INTEGER NOT NULL
    );`,
}

// Store is the SQLite backed bill store.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// Open connects to the SQLite file at path, creating it and its schema when
// missing. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	const op = "Open"

	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database %s: %w", op, path, err)
	}
	// One connection keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:  db,
		log: logger.WithComponent("store"),
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.log.Debug().Str("path", path).Msg("Bill store opened")
	return s, nil
}

// Migrate creates the tables required by the store.
func (s *Store) Migrate(ctx context.Context) error {
	const op = "Migrate"

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: migration failed: %w", op, err)
		}
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
