package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	c := New(mustOpen(t, path), nil)
	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := c.Put(ctx, helloKey, "Bonjour"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Put(ctx, helloKey, "Salut"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	raw := mustOpen(t, path)
	entries, err := raw.Load(ctx)
	_ = raw.Close()
	if err != nil {
		t.Fatalf("Load from store failed: %v", err)
	}
	if len(entries) != 1 || entries[0].UpdatedAt.IsZero() {
		t.Errorf("Persisted entries = %+v, want one with UpdatedAt set", entries)
	}

	reopened := New(mustOpen(t, path), nil)
	defer func() { _ = reopened.Close() }()
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, ok := reopened.Get(helloKey); !ok || got != "Salut" {
		t.Errorf("Reloaded entry = %q, %v", got, ok)
	}
	if reopened.Len() != 1 {
		t.Errorf("Len = %d, want 1", reopened.Len())
	}
}

func TestYAMLStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.yaml")

	c := New(mustOpen(t, path), nil)
	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := c.Put(ctx, helloKey, "Bonjour"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	bye := helloKey
	bye.Text = "Bye"
	if err := c.Put(ctx, bye, "Au revoir"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("YAML cache should only be written on Close")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := New(mustOpen(t, path), nil)
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, _ := reopened.Get(bye); got != "Au revoir" {
		t.Errorf("Get(bye) = %q", got)
	}
	if reopened.Len() != 2 {
		t.Errorf("Len = %d, want 2", reopened.Len())
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("Temp files left behind: %v", matches)
	}
}

func TestYAMLStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yml")
	if err := os.WriteFile(path, []byte("entries: [unterminated"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := Open(context.Background(), path); err == nil {
		t.Error("Expected error for corrupt YAML cache")
	}
}

func TestOpenEmptyLocation(t *testing.T) {
	store, err := Open(context.Background(), "")
	if err != nil || store != nil {
		t.Errorf("Open(\"\") = %v, %v", store, err)
	}
}

func TestIsFile(t *testing.T) {
	tests := []struct {
		location string
		expected bool
	}{
		{"cache.db", true},
		{"/tmp/cache.yaml", true},
		{"postgres://localhost/db", false},
		{"postgresql://localhost/db", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsFile(tt.location); got != tt.expected {
			t.Errorf("IsFile(%q) = %v, want %v", tt.location, got, tt.expected)
		}
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SHEETTRANS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SHEETTRANS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	key := helloKey
	key.Signature = "postgres-test"

	c := New(mustOpen(t, dsn), nil)
	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := c.Put(ctx, key, "Bonjour"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := New(mustOpen(t, dsn), nil)
	defer func() { _ = reopened.Close() }()
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, ok := reopened.Get(key); !ok || got != "Bonjour" {
		t.Errorf("Get = %q, %v", got, ok)
	}
}

func mustOpen(t *testing.T, location string) Store {
	t.Helper()
	store, err := Open(context.Background(), location)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", location, err)
	}
	return store
}
