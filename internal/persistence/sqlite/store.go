// Package sqlite stores documents as rows of a single SQLite table using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/coworkspace/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	name       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const (
	selectDocumentSQL = `SELECT payload FROM documents WHERE name = ?`
	upsertDocumentSQL = `
		INSERT INTO documents (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	deleteDocumentSQL = `DELETE FROM documents WHERE name = ?`
)

var _ persistence.DocumentStore = (*Store)(nil)

// Store is a DocumentStore backed by a SQLite database.
type Store struct {
	db    *sql.DB
	retry RetryConfig
	now   func() time.Time
}

// Open connects to the database and ensures the documents table exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Store{db: db, retry: cfg.Retry, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the payload stored under name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, bool, error) {
	if err := persistence.ValidateName(name); err != nil {
		return nil, false, err
	}

	var payload string
	err := s.db.QueryRowContext(ctx, selectDocumentSQL, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sqlite: get %s: %w", name, mapError(err))
	}
	return []byte(payload), true, nil
}

// Put inserts or replaces the document row.
func (s *Store) Put(ctx context.Context, name string, payload []byte) error {
	if err := persistence.ValidateName(name); err != nil {
		return err
	}

	updatedAt := s.now().UTC().Format(time.RFC3339Nano)
	err := withRetry(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, upsertDocumentSQL, name, string(payload), updatedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlite: put %s: %w", name, err)
	}
	return nil
}

// Delete removes the document row if present.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := persistence.ValidateName(name); err != nil {
		return err
	}

	err := withRetry(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, deleteDocumentSQL, name)
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", name, err)
	}
	return nil
}
