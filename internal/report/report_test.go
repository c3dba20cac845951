package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes a summary sheet and a data sheet with dataRows rows
// and returns the xlsx bytes.
func buildWorkbook(t *testing.T, dataRows int) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Summary"))
	_, err := f.NewSheet("Details")
	require.NoError(t, err)

	header := []any{"Emp ID", "Name", "Section", "Day 1", "Day 2"}
	require.NoError(t, f.SetSheetRow("Details", "A1", &header))

	for i := 0; i < dataRows; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		row := []any{fmt.Sprintf("E%03d", i), "Worker", "Sewing", 2.5, 3}
		if i == DateRowIndex {
			row = []any{"", "", "", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), "not a date"}
		}
		require.NoError(t, f.SetSheetRow("Details", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadSecondSheet(t *testing.T) {
	table, err := ReadSecondSheet(buildWorkbook(t, 6))
	require.NoError(t, err)

	assert.Equal(t, []string{"Emp ID", "Name", "Section", "Day 1", "Day 2"}, table.Header)
	require.Len(t, table.Rows, 6)

	first := table.Rows[0]
	assert.Equal(t, model.StringCell("E000"), first[0])
	assert.Equal(t, model.StringCell("Worker"), first[1])
	assert.Equal(t, model.NumberCell(2.5), first[3])
	assert.Equal(t, model.NumberCell(3), first[4])
}

func TestReadSecondSheet_SingleSheet(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "only"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = ReadSecondSheet(buf.Bytes())
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Contains(t, err.Error(), "1 sheet(s)")
}

func TestReadSecondSheet_NotAWorkbook(t *testing.T) {
	_, err := ReadSecondSheet([]byte("<html>session expired</html>"))
	var extractionErr *ExtractionError
	assert.ErrorAs(t, err, &extractionErr)
}

func TestPrepare_FromWorkbook(t *testing.T) {
	table, err := ReadSecondSheet(buildWorkbook(t, 10))
	require.NoError(t, err)

	Prepare(table, 8)

	require.Len(t, table.Rows, 8)
	dates := table.Rows[DateRowIndex]
	assert.Equal(t, "", dates[0].Text())
	assert.Equal(t, "01-Aug-25", dates[3].Text())
	assert.Equal(t, "", dates[4].Text())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		rows int
		k    int
		want int
	}{
		{name: "longer than limit", rows: 50, k: 47, want: 47},
		{name: "shorter than limit", rows: 10, k: 80, want: 10},
		{name: "exact", rows: 47, k: 47, want: 47},
		{name: "zero", rows: 5, k: 0, want: 0},
		{name: "negative", rows: 5, k: -1, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &model.Table{Header: []string{"a"}, Rows: make([][]model.Cell, tt.rows)}
			Truncate(table, tt.k)
			assert.Len(t, table.Rows, tt.want)
			assert.Equal(t, []string{"a"}, table.Header)
		})
	}
}

func TestNormalizeDateRow(t *testing.T) {
	table := &model.Table{Rows: [][]model.Cell{
		{model.StringCell("2025-08-01")},
		{
			model.StringCell("2025-08-01"),
			model.StringCell("2025-08-02 00:00:00"),
			model.StringCell("03-08-2025"),
			model.StringCell("04/08/2025"),
			model.NumberCell(45874),
			model.StringCell("garbage"),
			model.StringCell(""),
			model.EmptyCell(),
			model.NumberCell(math.NaN()),
			model.NumberCell(-3),
			model.StringCell("Total"),
		},
	}}

	NormalizeDateRow(table, 1)

	got := make([]string, 0, len(table.Rows[1]))
	for _, c := range table.Rows[1] {
		assert.Equal(t, model.CellString, c.Kind)
		got = append(got, c.Text())
	}
	assert.Equal(t, []string{
		"01-Aug-25", "02-Aug-25", "03-Aug-25", "04-Aug-25", "05-Aug-25",
		"", "", "", "", "", "",
	}, got)

	// Other rows are untouched.
	assert.Equal(t, "2025-08-01", table.Rows[0][0].Text())
}

func TestNormalizeDateRow_OutOfRange(t *testing.T) {
	table := &model.Table{Rows: [][]model.Cell{{model.StringCell("2025-08-01")}}}
	assert.NotPanics(t, func() {
		NormalizeDateRow(table, 3)
		NormalizeDateRow(table, -1)
	})
	assert.Equal(t, "2025-08-01", table.Rows[0][0].Text())
}

func TestSanitize(t *testing.T) {
	table := &model.Table{Rows: [][]model.Cell{
		{model.NumberCell(math.Inf(1)), model.NumberCell(math.Inf(-1)), model.NumberCell(math.NaN())},
		{model.EmptyCell(), model.NumberCell(1.5), model.StringCell("x")},
	}}
	require.False(t, IsFinite(table))

	Sanitize(table)

	assert.True(t, IsFinite(table))
	for _, c := range table.Rows[0] {
		assert.Equal(t, model.StringCell(""), c)
	}
	assert.Equal(t, model.StringCell(""), table.Rows[1][0])
	assert.Equal(t, model.NumberCell(1.5), table.Rows[1][1])
	assert.Equal(t, model.StringCell("x"), table.Rows[1][2])

	for _, row := range table.Values() {
		for _, v := range row {
			if f, ok := v.(float64); ok {
				assert.False(t, math.IsNaN(f) || math.IsInf(f, 0))
			}
		}
	}
}

func TestPrepare_ShortTableSkipsDateRow(t *testing.T) {
	table := &model.Table{Rows: [][]model.Cell{
		{model.StringCell("2025-08-01")},
		{model.NumberCell(math.NaN())},
	}}
	Prepare(table, 47)
	assert.Equal(t, "2025-08-01", table.Rows[0][0].Text())
	assert.Equal(t, "", table.Rows[1][0].Text())
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  model.Cell
	}{
		{"123", model.NumberCell(123)},
		{"2.75", model.NumberCell(2.75)},
		{"hello", model.StringCell("hello")},
		{"", model.EmptyCell()},
		{"   ", model.EmptyCell()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.input), "parseValue(%q)", tt.input)
	}

	assert.True(t, math.IsInf(parseValue("inf").Num, 1))
	assert.True(t, math.IsInf(parseValue("-inf").Num, -1))
	assert.True(t, math.IsNaN(parseValue("NaN").Num))
}

func TestSaveArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	path, err := SaveArtifact(dir, "ot_analysis_2025-08-01_to_2025-08-31_cat20.xlsx", []byte("PK"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "ot_analysis_2025-08-01_to_2025-08-31_cat20.xlsx"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data))
}
