// Package report turns a downloaded attendance workbook into the table that
// gets published to the tracking spreadsheet.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/xuri/excelize/v2"
)

// DataSheetIndex is the worksheet the report template puts its grid on.
const DataSheetIndex = 1

// ExtractionError reports a workbook that cannot be turned into a table.
type ExtractionError struct {
	Err    error
	Reason string
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ReadSecondSheet loads the workbook's second worksheet. The first row
// becomes the header; the remaining rows become data rows.
func ReadSecondSheet(data []byte) (*model.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ExtractionError{Reason: "not a readable workbook", Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) <= DataSheetIndex {
		return nil, &ExtractionError{Reason: fmt.Sprintf("workbook has %d sheet(s), need at least %d", len(sheets), DataSheetIndex+1)}
	}
	return readSheet(f, sheets[DataSheetIndex])
}

func readSheet(f *excelize.File, sheetName string) (*model.Table, error) {
	// Raw values keep dates as serial numbers and numbers unrounded.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ExtractionError{Reason: "cannot read sheet " + sheetName, Err: err}
	}

	table := &model.Table{}
	if len(rows) == 0 {
		return table, nil
	}

	table.Header = make([]string, len(rows[0]))
	copy(table.Header, rows[0])

	for rowIdx, row := range rows[1:] {
		rowNum := rowIdx + 2
		cells := make([]model.Cell, len(row))
		for colIdx, value := range row {
			if value == "" {
				cells[colIdx] = model.EmptyCell()
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			if err != nil {
				return nil, &ExtractionError{Reason: "cell coordinates out of range", Err: err}
			}
			typ, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, &ExtractionError{Reason: "cannot read cell " + cellName, Err: err}
			}
			cells[colIdx] = cellFromValue(value, typ)
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

// cellFromValue keeps text cells as text and parses everything else as a
// number when it looks like one.
func cellFromValue(value string, typ excelize.CellType) model.Cell {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return model.StringCell(value)
	}
	return parseValue(value)
}

// parseValue returns a number cell for numeric text, including the inf and
// nan tokens, and a string cell otherwise.
func parseValue(s string) model.Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return model.EmptyCell()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return model.NumberCell(f)
	}
	return model.StringCell(s)
}

// SaveArtifact writes the downloaded workbook to dir/name and returns the
// path. Artifacts are kept after the run.
func SaveArtifact(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}
