package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// yamlFile is the on-disk layout of a YAML cache
type yamlFile struct {
	Version int     `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// YAMLStore keeps the cache in a human-readable YAML file. Entries are
// collected in memory and the file is rewritten atomically on Close.
type YAMLStore struct {
	mu      sync.Mutex
	path    string
	entries map[Key]Entry
	dirty   bool
}

// OpenYAML reads the file at path; a missing file starts an empty cache
func OpenYAML(path string) (*YAMLStore, error) {
	s := &YAMLStore{path: path, entries: make(map[Key]Entry)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	for _, e := range f.Entries {
		s.entries[e.Key] = e
	}
	return s, nil
}

// Load returns every entry read from the file
func (s *YAMLStore) Load(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

// Put records one entry for the next flush
func (s *YAMLStore) Put(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Key] = e
	s.dirty = true
	return nil
}

// Close writes the file if anything changed
func (s *YAMLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	f := yamlFile{Version: 1, Entries: make([]Entry, 0, len(s.entries))}
	for _, e := range s.entries {
		f.Entries = append(f.Entries, e)
	}
	sort.Slice(f.Entries, func(i, j int) bool {
		a, b := f.Entries[i], f.Entries[j]
		if a.SourceLocale != b.SourceLocale {
			return a.SourceLocale < b.SourceLocale
		}
		if a.TargetLocale != b.TargetLocale {
			return a.TargetLocale < b.TargetLocale
		}
		if a.Signature != b.Signature {
			return a.Signature < b.Signature
		}
		return a.Text < b.Text
	})

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}
