// Package assemble writes resolved translations back into a copy of the
// source document.
package assemble

import (
	"fmt"

	"codeberg.org/snonux/sheettrans/internal/document"
	"codeberg.org/snonux/sheettrans/internal/extract"
)

// Assemble returns a clone of doc in which every site of every resolved unit
// holds the unit's translation. resolved maps Unit.Key() to text. Sites of
// unresolved units keep their original content, so the output never holds a
// blank or partial cell in place of a failed translation.
//
// The result depends only on doc, units and resolved, never on the order in
// which translations completed.
func Assemble(doc *document.Document, units []*extract.Unit, resolved map[string]string) (*document.Document, error) {
	out, err := doc.Clone()
	if err != nil {
		return nil, err
	}

	for _, u := range units {
		text, ok := resolved[u.Key()]
		if !ok {
			continue
		}
		for _, site := range u.Sites {
			if err := write(out, site, text); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func write(doc *document.Document, site extract.Site, text string) error {
	if site.Sheet < 0 || site.Sheet >= len(doc.Sheets) {
		return fmt.Errorf("site %s!R%dC%d: sheet index %d out of range", site.SheetName, site.Row, site.Col, site.Sheet)
	}
	sheet := doc.Sheets[site.Sheet]

	current := sheet.Cell(site.Row, site.Col)
	switch current.Kind {
	case document.KindBlank, document.KindText:
	case document.KindNumber, document.KindFormula, document.KindOther:
		return fmt.Errorf("site %s!R%dC%d: refusing to overwrite %s cell", sheet.Name, site.Row, site.Col, current.Kind)
	}

	if err := sheet.SetCell(site.Row, site.Col, document.Text(text)); err != nil {
		return fmt.Errorf("failed to write translation: %w", err)
	}
	return nil
}
