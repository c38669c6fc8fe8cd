// Package extract walks a document and builds the deduplicated work set of
// translation units. Each unit owns the occurrence sites it resolves.
package extract

import (
	"regexp"
	"strings"
	"unicode"

	"codeberg.org/snonux/sheettrans/internal/document"
	"codeberg.org/snonux/sheettrans/internal/locale"
)

// Layout selects how sites are derived from a sheet
type Layout string

const (
	// LayoutCells translates text cells in place
	LayoutCells Layout = "cells"
	// LayoutColumns fills language columns from a source column
	LayoutColumns Layout = "columns"
)

// AllTargets selects every language column in the columns layout
const AllTargets = "all"

// DefaultExclusions match strings that look like identifiers rather than
// human-readable text.
var DefaultExclusions = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z][A-Z0-9]*(?:_[A-Z0-9]+)+$`),
	regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(?:[._][A-Za-z0-9]+)+$`),
	regexp.MustCompile(`^(?:https?|ftp)://\S+$`),
	regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`),
}

// DefaultSkipColumns are never treated as target language columns
var DefaultSkipColumns = []string{
	"IncludeInBoth",
	"In translation",
	"Loc batch #",
	"DevEnglish",
	"Text Reviewed",
	"Text Changes",
	"Record ID",
	"ID",
	"Key",
	"Notes",
	"Comment",
	"Context",
}

// Site points at a cell that receives a unit's resolved text
type Site struct {
	Sheet     int
	SheetName string
	Row       int
	Col       int
}

// Unit is one translation unit. Two cells with the same normalized text for
// the same locale pair and shield signature share one Unit.
type Unit struct {
	SourceLocale string
	TargetLocale string
	Text         string
	Signature    string
	Sites        []Site
}

// Key identifies the unit. It matches the cache key fields.
func (u *Unit) Key() string {
	return UnitKey(u.SourceLocale, u.TargetLocale, u.Signature, u.Text)
}

// UnitKey builds the equality key for a unit
func UnitKey(source, target, signature, text string) string {
	return source + "\x1f" + target + "\x1f" + signature + "\x1f" + text
}

// Options controls extraction
type Options struct {
	SourceLocale string
	// Targets are locale codes or names. In the columns layout "all"
	// selects every language column.
	Targets   []string
	Signature string
	Layout    Layout
	// Sheets restricts extraction to the named sheets (all when empty)
	Sheets []string
	// Exclude overrides DefaultExclusions when non-nil
	Exclude []*regexp.Regexp
	// Strip removes protected spans before the letter check
	Strip func(string) string

	SourceColumn string
	SkipColumns  []string
	Retranslate  bool
}

// WorkSet is the deterministic, deduplicated result of an extraction
type WorkSet struct {
	Units    []*Unit
	Targets  []string
	Warnings []string

	index map[string]*Unit
}

func newWorkSet() *WorkSet {
	return &WorkSet{index: make(map[string]*Unit)}
}

func (w *WorkSet) addSite(source, target, signature, text string, site Site) {
	key := UnitKey(source, target, signature, text)
	u, ok := w.index[key]
	if !ok {
		u = &Unit{SourceLocale: source, TargetLocale: target, Text: text, Signature: signature}
		w.index[key] = u
		w.Units = append(w.Units, u)
	}
	u.Sites = append(u.Sites, site)
}

func (w *WorkSet) addTarget(target string) {
	for _, t := range w.Targets {
		if t == target {
			return
		}
	}
	w.Targets = append(w.Targets, target)
}

// ForTarget returns the units of one target locale in work set order
func (w *WorkSet) ForTarget(target string) []*Unit {
	var out []*Unit
	for _, u := range w.Units {
		if u.TargetLocale == target {
			out = append(out, u)
		}
	}
	return out
}

// SiteCount returns the number of sites over all units
func (w *WorkSet) SiteCount() int {
	n := 0
	for _, u := range w.Units {
		n += len(u.Sites)
	}
	return n
}

// Normalize returns the text used for unit equality. Only leading and
// trailing whitespace is folded.
func Normalize(s string) string {
	return strings.TrimSpace(s)
}

// Eligible reports whether s should be translated
func (o Options) Eligible(s string) bool {
	text := Normalize(s)
	if text == "" {
		return false
	}

	probe := text
	if o.Strip != nil {
		probe = o.Strip(text)
	}
	hasLetter := false
	for _, r := range probe {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}

	exclusions := o.Exclude
	if exclusions == nil {
		exclusions = DefaultExclusions
	}
	for _, re := range exclusions {
		if re.MatchString(text) {
			return false
		}
	}
	return true
}

func (o Options) wantSheet(name string) bool {
	if len(o.Sheets) == 0 {
		return true
	}
	for _, s := range o.Sheets {
		if s == name {
			return true
		}
	}
	return false
}

// Extract builds the work set for doc. Iteration is sheet declaration order,
// then row-major, so the result is deterministic for a given document.
func Extract(doc *document.Document, opts Options) *WorkSet {
	if opts.Layout == LayoutColumns {
		return extractColumns(doc, opts)
	}
	return extractCells(doc, opts)
}

func extractCells(doc *document.Document, opts Options) *WorkSet {
	ws := newWorkSet()

	var targets []string
	for _, t := range opts.Targets {
		code, err := locale.Resolve(t)
		if err != nil {
			ws.Warnings = append(ws.Warnings, err.Error())
			continue
		}
		targets = append(targets, code)
		ws.addTarget(code)
	}

	for si, sheet := range doc.Sheets {
		if !opts.wantSheet(sheet.Name) {
			continue
		}
		for r, row := range sheet.Rows {
			for c, cell := range row {
				if cell.Kind != document.KindText || !opts.Eligible(cell.Text) {
					continue
				}
				text := Normalize(cell.Text)
				site := Site{Sheet: si, SheetName: sheet.Name, Row: r, Col: c}
				for _, target := range targets {
					ws.addSite(opts.SourceLocale, target, opts.Signature, text, site)
				}
			}
		}
	}

	return ws
}
