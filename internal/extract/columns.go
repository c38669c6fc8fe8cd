package extract

import (
	"fmt"
	"strings"

	"codeberg.org/snonux/sheettrans/internal/document"
	"codeberg.org/snonux/sheettrans/internal/locale"
)

// DefaultSourceColumn is the header of the source text column
const DefaultSourceColumn = "English"

type targetColumn struct {
	col  int
	code string
}

// extractColumns handles sheets whose first row names a source column and
// one column per target language. The site of each unit is the target
// column cell in the same row as the source text.
func extractColumns(doc *document.Document, opts Options) *WorkSet {
	ws := newWorkSet()

	sourceHeader := opts.SourceColumn
	if sourceHeader == "" {
		sourceHeader = DefaultSourceColumn
	}
	sourceLocale := opts.SourceLocale
	if sourceLocale == "" {
		if code, err := locale.Resolve(sourceHeader); err == nil {
			sourceLocale = code
		}
	}

	skip := opts.SkipColumns
	if skip == nil {
		skip = DefaultSkipColumns
	}

	all := false
	var wanted []string
	for _, t := range opts.Targets {
		if strings.EqualFold(strings.TrimSpace(t), AllTargets) {
			all = true
			continue
		}
		code, err := locale.Resolve(t)
		if err != nil {
			ws.Warnings = append(ws.Warnings, err.Error())
			continue
		}
		wanted = append(wanted, code)
	}

	for si, sheet := range doc.Sheets {
		if !opts.wantSheet(sheet.Name) || len(sheet.Rows) == 0 {
			continue
		}

		srcCol := -1
		for c := range sheet.Rows[0] {
			if strings.EqualFold(headerText(sheet, c), sourceHeader) {
				srcCol = c
				break
			}
		}
		if srcCol < 0 {
			ws.Warnings = append(ws.Warnings,
				fmt.Sprintf("sheet %q has no %q column, skipping", sheet.Name, sourceHeader))
			continue
		}

		targets := targetColumns(sheet, srcCol, sourceLocale, skip, all, wanted)
		if len(targets) == 0 {
			ws.Warnings = append(ws.Warnings,
				fmt.Sprintf("sheet %q has no target language columns, skipping", sheet.Name))
			continue
		}
		for _, tc := range targets {
			ws.addTarget(tc.code)
		}

		for r := 1; r < len(sheet.Rows); r++ {
			src := sheet.Cell(r, srcCol)
			if src.Kind != document.KindText || !opts.Eligible(src.Text) {
				continue
			}
			text := Normalize(src.Text)

			for _, tc := range targets {
				dst := sheet.Cell(r, tc.col)
				switch dst.Kind {
				case document.KindBlank:
				case document.KindText:
					if strings.TrimSpace(dst.Text) != "" && !opts.Retranslate {
						continue
					}
				case document.KindNumber, document.KindFormula, document.KindOther:
					continue
				}
				site := Site{Sheet: si, SheetName: sheet.Name, Row: r, Col: tc.col}
				ws.addSite(sourceLocale, tc.code, opts.Signature, text, site)
			}
		}
	}

	return ws
}

func targetColumns(sheet *document.Sheet, srcCol int, sourceLocale string, skip []string, all bool, wanted []string) []targetColumn {
	var out []targetColumn
	for c := range sheet.Rows[0] {
		header := headerText(sheet, c)
		if c == srcCol || header == "" || isSkipped(header, skip) {
			continue
		}
		code, err := locale.Resolve(header)
		if err != nil {
			continue
		}
		if all {
			if code != sourceLocale {
				out = append(out, targetColumn{col: c, code: code})
			}
			continue
		}
		for _, w := range wanted {
			if w == code {
				out = append(out, targetColumn{col: c, code: code})
				break
			}
		}
	}
	return out
}

func headerText(sheet *document.Sheet, col int) string {
	cell := sheet.Cell(0, col)
	if cell.Kind != document.KindText {
		return ""
	}
	return strings.TrimSpace(cell.Text)
}

func isSkipped(header string, skip []string) bool {
	for _, s := range skip {
		if strings.EqualFold(strings.TrimSpace(s), header) {
			return true
		}
	}
	return false
}
