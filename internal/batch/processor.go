// Package batch reads the list of workbooks translated by --batch.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one workbook to translate
type Entry struct {
	Input string
	// Output is empty when the default output naming applies
	Output string
	// Line is the 1-based line number in the batch file
	Line int
}

// ReadBatchFile reads workbook entries from a file
// Supports formats:
// - Input only: "ui.xlsx" (outputs named after the input)
// - With output: "ui.xlsx = out/ui_translated.xlsx"
// Blank lines and lines starting with '#' are ignored. Relative paths are
// resolved against the directory of the batch file.
func ReadBatchFile(filename string) ([]Entry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	base := filepath.Dir(filename)
	var entries []Entry

	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := Entry{Line: i + 1}
		if input, output, ok := strings.Cut(line, "="); ok {
			entry.Input = strings.TrimSpace(input)
			entry.Output = strings.TrimSpace(output)
		} else {
			entry.Input = line
		}

		if entry.Input == "" {
			return nil, fmt.Errorf("%s:%d: missing input workbook", filename, entry.Line)
		}

		entry.Input = resolve(base, entry.Input)
		if entry.Output != "" {
			entry.Output = resolve(base, entry.Output)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
