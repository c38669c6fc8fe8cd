package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/snonux/sheettrans/internal/extract"
	"codeberg.org/snonux/sheettrans/internal/shield"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile      string
	Output       string
	BatchFile    string
	SummaryFile  string
	Lang         string
	ListModels   bool
	ArchiveCache bool

	// Extraction flags
	SourceLocale string
	Targets      []string
	Layout       string
	SourceColumn string
	SkipColumns  []string
	Sheets       []string
	Retranslate  bool
	Exclude      []string

	// Backend flags
	Provider string
	Model    string
	BaseURL  string

	// Dispatch flags
	Concurrency int
	Rate        float64
	Burst       int
	MaxAttempts int
	Timeout     time.Duration

	ShieldClasses []string

	// Cache flags
	CachePath string
	NoCache   bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Lang:          "en",
		SourceLocale:  "en",
		Layout:        string(extract.LayoutCells),
		SourceColumn:  extract.DefaultSourceColumn,
		SkipColumns:   append([]string(nil), extract.DefaultSkipColumns...),
		Provider:      "openai",
		Concurrency:   4,
		Rate:          2,
		Burst:         4,
		MaxAttempts:   3,
		Timeout:       60 * time.Second,
		ShieldClasses: append([]string(nil), shield.DefaultClasses...),
	}
}

// DefaultCachePath returns the sqlite cache location in the user's state
// directory
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheettrans-cache.db"
	}
	return filepath.Join(home, ".local", "state", "sheettrans", "cache.db")
}

// Validate checks flag combinations that cobra cannot express
func (f *Flags) Validate() error {
	if f.ListModels || f.ArchiveCache {
		return nil
	}

	if len(f.Targets) == 0 {
		return fmt.Errorf("at least one target language is required (--target)")
	}

	switch extract.Layout(f.Layout) {
	case extract.LayoutCells:
		for _, t := range f.Targets {
			if strings.EqualFold(t, extract.AllTargets) {
				return fmt.Errorf("target %q is only valid with --layout columns", t)
			}
		}
	case extract.LayoutColumns:
	default:
		return fmt.Errorf("invalid layout %q (valid: cells, columns)", f.Layout)
	}

	if f.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", f.Concurrency)
	}
	if f.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", f.MaxAttempts)
	}
	if f.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", f.Timeout)
	}

	return nil
}
