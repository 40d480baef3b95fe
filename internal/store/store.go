// Package store provides a SQLite-backed history of successful
// translations. Each record keeps the raw input, the generated Cypher and
// the index it was grounded on, so past answers can be listed or audited.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Translation is one persisted input/output pair.
type Translation struct {
	// Input is the text as received, sentinel prefix included.
	Input string
	// Cypher is the statement returned by the completion service.
	Cypher string
	// IndexName is the vector index the documents were retrieved from.
	IndexName string
	// CreatedAt is when the record was persisted.
	CreatedAt time.Time
}

// HistoryStore persists and retrieves translations. Implementations must be
// safe for concurrent use.
type HistoryStore interface {
	// Append persists a single translation.
	Append(ctx context.Context, t Translation) error
	// Recent returns the most recent n translations, oldest-first.
	// If fewer than n exist, all are returned.
	Recent(ctx context.Context, n int) ([]Translation, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a HistoryStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the history database.
// It resolves to ~/.ragcypher/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".ragcypher")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Single connection: avoids SQLITE_BUSY and keeps ":memory:" to one database.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS translations (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    input        TEXT    NOT NULL,
    cypher       TEXT    NOT NULL,
    index_name   TEXT    NOT NULL,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_translations_created
    ON translations (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Append persists a single translation. A zero CreatedAt is stamped with
// the current time.
func (s *SQLiteStore) Append(ctx context.Context, t Translation) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	const q = `INSERT INTO translations (input, cypher, index_name, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, t.Input, t.Cypher, t.IndexName, t.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("store: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n translations, oldest-first. Uses a
// subquery to select the tail then re-order it chronologically.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Translation, error) {
	const q = `
SELECT input, cypher, index_name, created_at FROM (
    SELECT id, input, cypher, index_name, created_at
    FROM   translations
    ORDER  BY created_at DESC, id DESC
    LIMIT  ?
) ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var out []Translation
	for rows.Next() {
		var t Translation
		var ts int64
		if err := rows.Scan(&t.Input, &t.Cypher, &t.IndexName, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		t.CreatedAt = time.Unix(ts, 0)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return out, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
