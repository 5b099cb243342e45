// Package cache is an optional on-disk memoization store for checked
// procedure signatures: (symbol path, source hash) -> a rendered type
// signature string. A second run of cmd/typecheck over an unchanged source
// tree can then skip re-rendering (though not re-checking — the checker
// itself has no notion of incremental re-use, see DESIGN.md) a procedure's
// exported signature. Grounded on the donor's go.mod dependency on
// modernc.org/sqlite, which the retrieved core packages never exercise
// directly; this gives it a concrete, real home.
package cache

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps a single-file sqlite database holding one row per (path,
// sourceHash) pair checked so far.
type Store struct {
	db *sql.DB
}

// Open creates or reuses the sqlite database at path, creating the
// signatures table if it does not already exist.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS signatures (
	symbol_path  TEXT NOT NULL,
	source_hash  TEXT NOT NULL,
	signature    TEXT NOT NULL,
	PRIMARY KEY (symbol_path, source_hash)
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Lookup returns the cached signature for (path, sourceHash), and whether
// an entry was found.
func (s *Store) Lookup(ctx context.Context, path, sourceHash string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT signature FROM signatures WHERE symbol_path = ? AND source_hash = ?`, path, sourceHash)

	var sig string
	switch err := row.Scan(&sig); err {
	case nil:
		return sig, true, nil
	case sql.ErrNoRows:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("cache: looking up %s: %w", path, err)
	}
}

// Store records signature for (path, sourceHash), replacing any prior entry
// for the same pair (a changed signature under an unchanged hash would mean
// the checker itself is nondeterministic, which this store does not try to
// detect).
func (s *Store) Store(ctx context.Context, path, sourceHash, signature string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signatures (symbol_path, source_hash, signature) VALUES (?, ?, ?)
		 ON CONFLICT(symbol_path, source_hash) DO UPDATE SET signature = excluded.signature`,
		path, sourceHash, signature)
	if err != nil {
		return fmt.Errorf("cache: storing %s: %w", path, err)
	}
	return nil
}
