package processor

import (
	"fmt"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/sheettrans/internal"
	"codeberg.org/snonux/sheettrans/internal/assemble"
	"codeberg.org/snonux/sheettrans/internal/document"
	"codeberg.org/snonux/sheettrans/internal/extract"
	"codeberg.org/snonux/sheettrans/internal/report"
	"codeberg.org/snonux/sheettrans/internal/xlsx"
)

// writeOutputs assembles and writes the translated workbooks. The columns
// layout fills one workbook; the cells layout writes one per target.
func (p *Processor) writeOutputs(doc *document.Document, ws *extract.WorkSet, resolved map[string]string,
	input, output string, summary *report.Summary) error {

	if extract.Layout(p.flags.Layout) == extract.LayoutColumns {
		path := output
		if path == "" {
			path = internal.OutputPath(input, "translated", ".xlsx")
		}
		if err := p.writeOne(doc, ws.Units, resolved, path); err != nil {
			return err
		}
		for _, target := range ws.Targets {
			summary.Target(target).Output = path
		}
		return nil
	}

	for _, target := range ws.Targets {
		path := cellsOutputPath(input, output, target, len(ws.Targets))
		if err := p.writeOne(doc, ws.ForTarget(target), resolved, path); err != nil {
			return err
		}
		summary.Target(target).Output = path
	}
	return nil
}

func (p *Processor) writeOne(doc *document.Document, units []*extract.Unit, resolved map[string]string, path string) error {
	out, err := assemble.Assemble(doc, units, resolved)
	if err != nil {
		return fmt.Errorf("failed to assemble %s: %w", path, err)
	}
	if err := xlsx.Write(out, path); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "  Saved: %s\n", path)
	return nil
}

func cellsOutputPath(input, output, target string, targets int) string {
	switch {
	case output == "":
		return internal.OutputPath(input, target, ".xlsx")
	case targets == 1:
		return output
	default:
		return internal.LocalizedPath(output, target)
	}
}

// summaryPath returns where the machine readable summary of input goes. In
// batch mode a --summary path gets the input name inserted.
func (p *Processor) summaryPath(input string) string {
	if p.flags.SummaryFile == "" {
		return internal.OutputPath(input, "summary", ".json")
	}
	if p.flags.BatchFile == "" {
		return p.flags.SummaryFile
	}
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return internal.LocalizedPath(p.flags.SummaryFile, name)
}
