// Package export writes report tables as spreadsheets and the sales ledger
// as CSV.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/pkg/errors"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	CSVContentType  = "text/csv"

	titleLayout  = "January 2, 2006"
	defaultSheet = "Sheet1"
)

// Table is a report laid out for export: a heading line, a header row, the
// data rows and an optional totals row.
type Table struct {
	Title  string
	Header []string
	Rows   [][]interface{}
	Footer []interface{}
}

// ReportTitle renders the heading of a dated report, e.g.
// "Membership Sales Report from June 1, 2025 to June 30, 2025".
func ReportTitle(name string, from, to time.Time) string {
	if from.Year() == to.Year() && from.YearDay() == to.YearDay() {
		return fmt.Sprintf("%s Report for %s", name, from.Format(titleLayout))
	}
	return fmt.Sprintf("%s Report from %s to %s", name, from.Format(titleLayout), to.Format(titleLayout))
}

// ColumnName converts a zero-based column index to its spreadsheet letters
// (0 -> A, 25 -> Z, 26 -> AA).
func ColumnName(index int) string {
	name := ""
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

func cell(col, row int) string {
	return fmt.Sprintf("%s%d", ColumnName(col), row)
}

// WriteXLSX writes t as a single-sheet workbook.
func WriteXLSX(w io.Writer, sheet string, t Table) error {
	if len(t.Header) == 0 {
		return errors.New("export: table has no header")
	}
	f := excelize.NewFile()
	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		f.SetSheetName(defaultSheet, sheet)
	}

	row := 1
	if t.Title != "" {
		f.SetCellValue(sheet, cell(0, row), t.Title)
		if len(t.Header) > 1 {
			f.MergeCell(sheet, cell(0, row), cell(len(t.Header)-1, row))
		}
		row += 2
	}
	for i, h := range t.Header {
		f.SetCellValue(sheet, cell(i, row), h)
	}
	row++
	for _, r := range t.Rows {
		for i, v := range r {
			f.SetCellValue(sheet, cell(i, row), v)
		}
		row++
	}
	if len(t.Footer) > 0 {
		for i, v := range t.Footer {
			if v == nil {
				continue
			}
			f.SetCellValue(sheet, cell(i, row), v)
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "export: write workbook")
	}
	return nil
}
