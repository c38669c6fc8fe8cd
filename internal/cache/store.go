package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Store persists cache entries
type Store interface {
	// Load returns every persisted entry
	Load(ctx context.Context) ([]Entry, error)
	// Put inserts or replaces one entry
	Put(ctx context.Context, e Entry) error
	Close() error
}

// IOError wraps a persistence failure
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache %s failed: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Open selects a store for location: PostgreSQL for postgres:// URLs, a
// YAML file for .yaml/.yml paths and a sqlite database otherwise.
func Open(ctx context.Context, location string) (Store, error) {
	switch {
	case location == "":
		return nil, nil
	case strings.HasPrefix(location, "postgres://"), strings.HasPrefix(location, "postgresql://"):
		s, err := OpenPostgres(ctx, location)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	switch strings.ToLower(filepath.Ext(location)) {
	case ".yaml", ".yml":
		s, err := OpenYAML(location)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := OpenSQLite(location)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// IsFile reports whether location names a local cache file
func IsFile(location string) bool {
	return location != "" &&
		!strings.HasPrefix(location, "postgres://") &&
		!strings.HasPrefix(location, "postgresql://")
}
