package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// WorkbookOptions shapes a generated attendance workbook.
type WorkbookOptions struct {
	DateRowValue time.Time
	DataRows     int
	Days         int
	// DateRowIndex is the 0-based data row that carries the dates.
	DateRowIndex int
}

// DefaultWorkbookOptions returns a small two-sheet report with dates in
// data row 3.
func DefaultWorkbookOptions() WorkbookOptions {
	return WorkbookOptions{
		DataRows:     10,
		Days:         3,
		DateRowIndex: 3,
		DateRowValue: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

// BuildWorkbook returns xlsx bytes with a summary sheet and a detail sheet.
// The detail sheet has three identity columns followed by one column per day.
func BuildWorkbook(t *testing.T, opts WorkbookOptions) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetCellValue("Sheet1", "A1", "Summary"); err != nil {
		t.Fatalf("failed to write summary: %v", err)
	}
	if _, err := f.NewSheet("Details"); err != nil {
		t.Fatalf("failed to add detail sheet: %v", err)
	}

	header := []any{"Emp ID", "Name", "Section"}
	for d := 0; d < opts.Days; d++ {
		header = append(header, fmt.Sprintf("Day %d", d+1))
	}
	if err := f.SetSheetRow("Details", "A1", &header); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}

	for i := 0; i < opts.DataRows; i++ {
		row := []any{fmt.Sprintf("E%03d", i), "Worker", "Sewing"}
		for d := 0; d < opts.Days; d++ {
			if i == opts.DateRowIndex {
				row = append(row, opts.DateRowValue.AddDate(0, 0, d))
			} else {
				row = append(row, float64(i%3)+0.5)
			}
		}
		if i == opts.DateRowIndex {
			row[0], row[1], row[2] = "", "", ""
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("bad cell coordinates: %v", err)
		}
		if err := f.SetSheetRow("Details", cell, &row); err != nil {
			t.Fatalf("failed to write row %d: %v", i, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to encode workbook: %v", err)
	}
	return buf.Bytes()
}
