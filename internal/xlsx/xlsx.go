// Package xlsx reads and writes Office Open XML workbooks as document.Document
// values using excelize.
//
// Write reopens the workbook a document was read from and only touches text
// cells whose content changed, so styles, formulas, numbers, charts and every
// other part of the package pass through untouched. Output is written to a
// temporary file in the destination directory and renamed into place.
package xlsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"codeberg.org/snonux/sheettrans/internal/document"
)

// ErrFileNotFound indicates the input workbook does not exist.
var ErrFileNotFound = errors.New("file not found")

// Read loads every sheet of the workbook at path.
func Read(path string) (*document.Document, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	doc := &document.Document{Origin: path}
	for _, name := range f.GetSheetList() {
		sheet, err := readSheet(f, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		doc.Sheets = append(doc.Sheets, sheet)
	}

	return doc, nil
}

func readSheet(f *excelize.File, name string) (*document.Sheet, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	sheet := &document.Sheet{Name: name, Rows: make([][]document.Cell, len(rows))}
	for r, row := range rows {
		cells := make([]document.Cell, len(row))
		for c, value := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			cell, err := readCell(f, name, axis, value)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", axis, err)
			}
			cells[c] = cell
		}
		sheet.Rows[r] = cells
	}

	return sheet, nil
}

func readCell(f *excelize.File, sheet, axis, value string) (document.Cell, error) {
	formula, err := f.GetCellFormula(sheet, axis)
	if err != nil {
		return document.Cell{}, err
	}
	if formula != "" {
		return document.Formula(formula, value), nil
	}
	if value == "" {
		return document.Blank(), nil
	}

	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return document.Cell{}, err
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return document.Text(value), nil
	case excelize.CellTypeNumber, excelize.CellTypeDate:
		return document.Number(value), nil
	case excelize.CellTypeBool:
		return document.Other("b", value), nil
	case excelize.CellTypeError:
		return document.Other("e", value), nil
	default:
		// Cells without a type attribute are numeric in OOXML
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			return document.Number(value), nil
		}
		return document.Text(value), nil
	}
}

// Write stores doc at path. When doc.Origin names a readable workbook it is
// used as the base; otherwise a new workbook is built from the cells alone.
func Write(doc *document.Document, path string) error {
	f, fresh, err := openBase(doc)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, sheet := range doc.Sheets {
		sheetFresh := fresh
		if idx, _ := f.GetSheetIndex(sheet.Name); idx < 0 {
			if _, err := f.NewSheet(sheet.Name); err != nil {
				return fmt.Errorf("failed to create sheet %q: %w", sheet.Name, err)
			}
			sheetFresh = true
		}
		if err := writeSheet(f, sheet, sheetFresh); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", sheet.Name, err)
		}
	}

	return writeAtomic(f, path)
}

func openBase(doc *document.Document) (*excelize.File, bool, error) {
	if doc.Origin != "" {
		f, err := excelize.OpenFile(doc.Origin)
		if err != nil {
			return nil, false, fmt.Errorf("failed to reopen %s: %w", doc.Origin, err)
		}
		return f, false, nil
	}

	f := excelize.NewFile()
	if len(doc.Sheets) > 0 {
		if err := f.SetSheetName("Sheet1", doc.Sheets[0].Name); err != nil {
			f.Close()
			return nil, false, err
		}
	}
	return f, true, nil
}

func writeSheet(f *excelize.File, sheet *document.Sheet, fresh bool) error {
	for r, row := range sheet.Rows {
		for c, cell := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if fresh {
				err = writeFreshCell(f, sheet.Name, axis, cell)
			} else {
				err = updateTextCell(f, sheet.Name, axis, cell)
			}
			if err != nil {
				return fmt.Errorf("cell %s: %w", axis, err)
			}
		}
	}
	return nil
}

// updateTextCell rewrites a text cell in an existing workbook when its
// content differs from the base. All other kinds are left alone.
func updateTextCell(f *excelize.File, sheet, axis string, cell document.Cell) error {
	if cell.Kind != document.KindText {
		return nil
	}
	current, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}
	if current == cell.Text {
		return nil
	}
	return f.SetCellStr(sheet, axis, cell.Text)
}

func writeFreshCell(f *excelize.File, sheet, axis string, cell document.Cell) error {
	switch cell.Kind {
	case document.KindBlank:
		return nil
	case document.KindText:
		return f.SetCellStr(sheet, axis, cell.Text)
	case document.KindNumber:
		if n, err := strconv.ParseFloat(cell.Raw, 64); err == nil {
			return f.SetCellValue(sheet, axis, n)
		}
		return f.SetCellStr(sheet, axis, cell.Raw)
	case document.KindFormula:
		return f.SetCellFormula(sheet, axis, cell.Formula)
	case document.KindOther:
		if cell.Tag == "b" {
			return f.SetCellBool(sheet, axis, cell.Raw == "1" || cell.Raw == "TRUE")
		}
		return f.SetCellStr(sheet, axis, cell.Raw)
	default:
		return fmt.Errorf("unknown cell kind %v", cell.Kind)
	}
}

// writeAtomic serializes f next to path and renames it into place so a
// crash never leaves a partially written workbook behind.
func writeAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := f.Write(tmp); err != nil {
		cleanup()
		return fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move workbook into place: %w", err)
	}

	return nil
}

// CellName returns the A1 style reference of a zero-based position
func CellName(row, col int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return fmt.Sprintf("R%dC%d", row+1, col+1)
	}
	return name
}
