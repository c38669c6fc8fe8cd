// Package report collects per-run statistics and renders them as a machine
// readable summary (JSON or YAML) and as localized text for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Failure records one unit that kept its source text
type Failure struct {
	Text     string   `json:"text" yaml:"text"`
	Target   string   `json:"target" yaml:"target"`
	State    string   `json:"state" yaml:"state"`
	Attempts int      `json:"attempts" yaml:"attempts"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
	Sites    []string `json:"sites" yaml:"sites"`
}

// TargetSummary holds the counts for one target locale. Counts are per
// unit; Sites is the number of cells the units cover.
type TargetSummary struct {
	Locale      string    `json:"locale" yaml:"locale"`
	Output      string    `json:"output,omitempty" yaml:"output,omitempty"`
	Units       int       `json:"units" yaml:"units"`
	Sites       int       `json:"sites" yaml:"sites"`
	Translated  int       `json:"translated" yaml:"translated"`
	Cached      int       `json:"cached" yaml:"cached"`
	Fallback    int       `json:"fallback" yaml:"fallback"`
	Failed      int       `json:"failed" yaml:"failed"`
	Cancelled   int       `json:"cancelled" yaml:"cancelled"`
	Unprotected int       `json:"unprotected" yaml:"unprotected"`
	Failures    []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Resolved returns the number of units that received a translation
func (t *TargetSummary) Resolved() int {
	return t.Translated + t.Cached
}

// Summary describes one run over one input document
type Summary struct {
	Input        string           `json:"input" yaml:"input"`
	StartedAt    time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time        `json:"finished_at" yaml:"finished_at"`
	BackendCalls int              `json:"backend_calls" yaml:"backend_calls"`
	Targets      []*TargetSummary `json:"targets" yaml:"targets"`
	Warnings     []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// New starts a summary for input
func New(input string) *Summary {
	return &Summary{Input: input, StartedAt: time.Now().UTC()}
}

// Target returns the summary for locale, creating it on first use
func (s *Summary) Target(locale string) *TargetSummary {
	for _, t := range s.Targets {
		if t.Locale == locale {
			return t
		}
	}
	t := &TargetSummary{Locale: locale}
	s.Targets = append(s.Targets, t)
	return t
}

// Warn records a warning
func (s *Summary) Warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// Finish stamps the end time
func (s *Summary) Finish() {
	s.FinishedAt = time.Now().UTC()
}

// Duration returns the run time
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Totals adds up all targets
func (s *Summary) Totals() TargetSummary {
	var total TargetSummary
	for _, t := range s.Targets {
		total.Units += t.Units
		total.Sites += t.Sites
		total.Translated += t.Translated
		total.Cached += t.Cached
		total.Fallback += t.Fallback
		total.Failed += t.Failed
		total.Cancelled += t.Cancelled
		total.Unprotected += t.Unprotected
	}
	return total
}

// AllTargetsFailed reports whether every target that had work ended without
// a single resolved unit
func (s *Summary) AllTargetsFailed() bool {
	withWork := 0
	for _, t := range s.Targets {
		if t.Units == 0 {
			continue
		}
		withWork++
		if t.Resolved() > 0 {
			return false
		}
	}
	return withWork > 0
}

// Write stores the summary at path, as YAML for .yaml/.yml and JSON
// otherwise
func (s *Summary) Write(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s)
	default:
		data, err = json.MarshalIndent(s, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
