package resultlog

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Results"

// WriteXLSX writes records as a workbook with a header row.
func WriteXLSX(records []Record, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	for r, rec := range records {
		for c, v := range rec.row() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 40)
	_ = f.SetColWidth(sheetName, "C", "C", 80)
	_ = f.SetColWidth(sheetName, "D", "D", 10)
	_ = f.SetColWidth(sheetName, "E", "E", 50)
	_ = f.SetColWidth(sheetName, "F", "F", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ReadXLSX reads back a workbook produced by WriteXLSX.
func ReadXLSX(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, recordFromRow(row))
	}
	return out, nil
}
