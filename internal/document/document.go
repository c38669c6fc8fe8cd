package document

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
)

// Kind identifies the variant held by a Cell
type Kind int

const (
	KindBlank Kind = iota
	KindText
	KindNumber
	KindFormula
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "Blank"
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindFormula:
		return "Formula"
	case KindOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// Cell is a closed tagged variant. Only the fields belonging to Kind are
// meaningful:
//
//	KindText:    Text
//	KindNumber:  Raw (the literal as stored)
//	KindFormula: Formula, Raw (cached value)
//	KindOther:   Tag (format specific type marker), Raw
type Cell struct {
	Kind    Kind
	Text    string
	Raw     string
	Formula string
	Tag     string
}

// Blank returns an empty cell
func Blank() Cell { return Cell{Kind: KindBlank} }

// Text returns a text cell
func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

// Number returns a numeric cell holding the literal raw value
func Number(raw string) Cell { return Cell{Kind: KindNumber, Raw: raw} }

// Formula returns a formula cell with its cached value
func Formula(expr, cached string) Cell {
	return Cell{Kind: KindFormula, Formula: expr, Raw: cached}
}

// Other returns an opaque cell (booleans, error values, ...)
func Other(tag, raw string) Cell { return Cell{Kind: KindOther, Tag: tag, Raw: raw} }

// Sheet is a named grid of cells addressed by zero-based (row, col)
type Sheet struct {
	Name string
	Rows [][]Cell
}

// Document is an ordered collection of sheets.
// Origin is the path the document was read from, if any; writers use it to
// carry formatting and other non-cell content through unchanged.
type Document struct {
	Sheets []*Sheet
	Origin string
}

// NewSheet creates a sheet from rows of cells
func NewSheet(name string, rows ...[]Cell) *Sheet {
	return &Sheet{Name: name, Rows: rows}
}

// Cell returns the cell at (row, col). Positions outside the stored grid
// read as Blank.
func (s *Sheet) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return Blank()
	}
	return s.Rows[row][col]
}

// SetCell stores c at (row, col), growing the row if needed. Rows are never
// added: the sheet's row count is part of the document's shape.
func (s *Sheet) SetCell(row, col int, c Cell) error {
	if row < 0 || row >= len(s.Rows) {
		return fmt.Errorf("sheet %q: row %d out of range", s.Name, row)
	}
	if col < 0 {
		return fmt.Errorf("sheet %q: column %d out of range", s.Name, col)
	}
	for len(s.Rows[row]) <= col {
		s.Rows[row] = append(s.Rows[row], Blank())
	}
	s.Rows[row][col] = c
	return nil
}

// Clone returns a deep copy of the document
func (d *Document) Clone() (*Document, error) {
	var out Document
	if err := deepcopy.Copy(&out, d); err != nil {
		return nil, fmt.Errorf("failed to clone document: %w", err)
	}
	return &out, nil
}
