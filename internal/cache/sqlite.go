package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS translations (
    source_locale TEXT NOT NULL,
    target_locale TEXT NOT NULL,
    signature     TEXT NOT NULL,
    source_text   TEXT NOT NULL,
    translation   TEXT NOT NULL,
    updated_at    TEXT NOT NULL,
    PRIMARY KEY (source_locale, target_locale, signature, source_text)
)`

// SQLiteStore keeps the cache in a local sqlite database file
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// One writer at a time; sqlite serializes writes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Load returns every stored entry
func (s *SQLiteStore) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_locale, target_locale, signature, source_text, translation, updated_at FROM translations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query translations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updated string
		if err := rows.Scan(&e.SourceLocale, &e.TargetLocale, &e.Signature, &e.Text, &e.Translation, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Put inserts or replaces one entry
func (s *SQLiteStore) Put(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translations
		 (source_locale, target_locale, signature, source_text, translation, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.SourceLocale, e.TargetLocale, e.Signature, e.Text, e.Translation,
		e.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store translation: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
