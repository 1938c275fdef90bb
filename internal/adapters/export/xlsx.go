// Package export renders a bout score sheet into file formats for printing
// and archiving. It only reads bout.ScoreSheet snapshots.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/okian/pillowbout/internal/domain/bout"
)

// Sheet layout constants.
const (
	SheetName      = "Score Sheet"
	Title          = "Official Pillow Fight Score Sheet"
	SignatureLabel = "Judge signature"
	signatureLine  = "______________________________"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX writes sheet as a single-sheet workbook.
func WriteXLSX(w io.Writer, sheet bout.ScoreSheet) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(name, SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	b := &builder{f: f}
	if err := b.styles(); err != nil {
		return err
	}

	b.row(b.bold, Title)
	b.skip()
	b.row(0, "Judge", sheet.Judge)
	b.row(0, "Bout", sheet.BoutID)
	b.row(0, "Fighter A", sheet.FighterA)
	b.row(0, "Fighter B", sheet.FighterB)
	b.skip()

	b.row(b.header, "Round", sheet.FighterA, sheet.FighterB, "Sum")
	for _, r := range sheet.Rounds {
		b.row(0, r.Round, r.A, r.B, r.Sum)
	}
	b.row(b.bold, "Total", sheet.TotalA, sheet.TotalB, sheet.TotalA+sheet.TotalB)
	b.row(b.bold, "Winner", sheet.Winner)
	b.skip()

	b.row(b.bold, "Event Log")
	b.row(b.header, "Time", "Fighter", "Round", "Event", "Points")
	for _, ev := range sheet.Events {
		b.row(0, ev.Time, ev.Fighter, ev.Round, ev.Label, ev.Points)
	}
	b.skip()
	b.row(0, SignatureLabel, signatureLine)

	if b.err != nil {
		return b.err
	}
	if err := f.SetColWidth(SheetName, "A", "A", 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "E", 16); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// builder appends rows top to bottom and keeps the first error.
type builder struct {
	f      *excelize.File
	next   int
	bold   int
	header int
	err    error
}

func (b *builder) styles() error {
	var err error
	if b.bold, err = b.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return fmt.Errorf("bold style: %w", err)
	}
	b.header, err = b.f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	b.next = 1
	return nil
}

func (b *builder) skip() { b.next++ }

func (b *builder) row(style int, cells ...any) {
	if b.err != nil {
		return
	}
	first, err := excelize.CoordinatesToCellName(1, b.next)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetSheetRow(SheetName, first, &cells); err != nil {
		b.err = fmt.Errorf("row %d: %w", b.next, err)
		return
	}
	if style != 0 {
		last, _ := excelize.CoordinatesToCellName(len(cells), b.next)
		if err := b.f.SetCellStyle(SheetName, first, last, style); err != nil {
			b.err = fmt.Errorf("style row %d: %w", b.next, err)
			return
		}
	}
	b.next++
}
