// Package archive retires the persistent translation cache so the next run
// starts cold.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveCache moves the cache file to an archive directory next to it,
// named cache-<timestamp><ext>. It returns the archive path.
func ArchiveCache(cachePath string) (string, error) {
	// Check if cache file exists
	info, err := os.Stat(cachePath)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("cache file does not exist: %s", cachePath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat cache file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("cache path is a directory: %s", cachePath)
	}

	// Get parent directory and create archive path
	parentDir := filepath.Dir(cachePath)
	archiveDir := filepath.Join(parentDir, "archive")

	// Create archive directory if it doesn't exist
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	ext := filepath.Ext(cachePath)
	name := strings.TrimSuffix(filepath.Base(cachePath), ext)

	// Generate timestamp
	timestamp := time.Now().Format("20060102-150405")
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", name, timestamp, ext))

	// Check if archive already exists (unlikely but possible)
	if _, err := os.Stat(archivePath); err == nil {
		// Add microseconds to make it unique
		timestamp = time.Now().Format("20060102-150405.000000")
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", name, timestamp, ext))
	}

	if err := os.Rename(cachePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive cache file: %w", err)
	}

	return archivePath, nil
}
