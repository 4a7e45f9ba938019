// Package storage persists plugin state blobs in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS plugin_state (
	name       TEXT PRIMARY KEY,
	blob       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Store is a SQLite-backed blob store: one opaque snapshot per plugin.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveBlob upserts the blob for a plugin name.
func (s *Store) SaveBlob(name, blob string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("plugin name is required")
	}
	_, err := s.db.Exec(
		`INSERT INTO plugin_state (name, blob, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		name, blob, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save blob %q: %w", name, err)
	}
	return nil
}

// LoadBlob returns the stored blob, or nil when the plugin never saved.
func (s *Store) LoadBlob(name string) (*string, error) {
	var blob string
	err := s.db.QueryRow(`SELECT blob FROM plugin_state WHERE name = ?`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load blob %q: %w", name, err)
	}
	return &blob, nil
}
