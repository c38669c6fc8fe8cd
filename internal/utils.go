package internal

import (
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeFilename creates a safe filename component from a string
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// OutputPath derives a sibling file of input by appending _suffix to its
// base name and replacing the extension with ext.
// OutputPath("dir/ui.xlsx", "fr", ".xlsx") is "dir/ui_fr.xlsx".
func OutputPath(input, suffix, ext string) string {
	dir := filepath.Dir(input)
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+"_"+SanitizeFilename(suffix)+ext)
}

// LocalizedPath inserts _suffix before the extension of path.
// LocalizedPath("out/result.xlsx", "de") is "out/result_de.xlsx".
func LocalizedPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + SanitizeFilename(suffix) + ext
}
