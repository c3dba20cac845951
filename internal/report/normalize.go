package report

import (
	"math"
	"strings"
	"time"

	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/xuri/excelize/v2"
)

// DateRowIndex is the data row that holds the per-column dates.
const DateRowIndex = 3

// DisplayDateLayout renders dates as dd-Mon-yy.
const DisplayDateLayout = "02-Jan-06"

// Serial numbers outside this range are not treated as dates.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465 // 9999-12-31
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02-01-2006",
	"02/01/2006",
	"02-Jan-06",
	"02-Jan-2006",
}

// Truncate keeps at most k data rows. The header is not counted.
func Truncate(t *model.Table, k int) {
	if k < 0 {
		k = 0
	}
	if len(t.Rows) > k {
		t.Rows = t.Rows[:k]
	}
}

// NormalizeDateRow rewrites every cell of data row idx as a dd-Mon-yy string.
// Cells that do not parse as a date become empty strings.
func NormalizeDateRow(t *model.Table, idx int) {
	if idx < 0 || idx >= len(t.Rows) {
		return
	}
	row := t.Rows[idx]
	for i, cell := range row {
		if ts, ok := parseDate(cell); ok {
			row[i] = model.StringCell(ts.Format(DisplayDateLayout))
		} else {
			row[i] = model.StringCell("")
		}
	}
}

func parseDate(cell model.Cell) (time.Time, bool) {
	switch cell.Kind {
	case model.CellNumber:
		if cell.IsMissing() || cell.Num < minExcelSerial || cell.Num > maxExcelSerial {
			return time.Time{}, false
		}
		ts, err := excelize.ExcelDateToTime(cell.Num, false)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	case model.CellString:
		s := strings.TrimSpace(cell.Str)
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// Sanitize replaces NaN, infinities and missing values with empty strings,
// which the destination accepts where it rejects non-finite numbers.
func Sanitize(t *model.Table) {
	for _, row := range t.Rows {
		for i, cell := range row {
			if cell.IsMissing() {
				row[i] = model.StringCell("")
			}
		}
	}
}

// Prepare applies the publish transformations in order: truncate to
// rowLimit data rows, normalize the date row, sanitize.
func Prepare(t *model.Table, rowLimit int) *model.Table {
	Truncate(t, rowLimit)
	if len(t.Rows) > DateRowIndex {
		NormalizeDateRow(t, DateRowIndex)
	}
	Sanitize(t)
	return t
}

// IsFinite reports whether every numeric cell of t is finite.
func IsFinite(t *model.Table) bool {
	for _, row := range t.Rows {
		for _, cell := range row {
			if cell.Kind == model.CellNumber && (math.IsNaN(cell.Num) || math.IsInf(cell.Num, 0)) {
				return false
			}
		}
	}
	return true
}
