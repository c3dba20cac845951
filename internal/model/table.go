package model

import (
	"math"
	"strconv"
)

// CellKind tags the value held by a Cell.
type CellKind int

// Cell kinds.
const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
)

// Cell is a single value of an extracted table.
type Cell struct {
	Str  string
	Num  float64
	Kind CellKind
}

// StringCell returns a text cell.
func StringCell(s string) Cell {
	return Cell{Kind: CellString, Str: s}
}

// NumberCell returns a numeric cell. Non-finite values are allowed here and
// removed later by sanitization.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Num: f}
}

// EmptyCell returns a missing value.
func EmptyCell() Cell {
	return Cell{}
}

// IsMissing reports whether the cell is empty, NaN or infinite.
func (c Cell) IsMissing() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellNumber:
		return math.IsNaN(c.Num) || math.IsInf(c.Num, 0)
	}
	return false
}

// Text renders the cell the way it would appear as literal sheet text.
func (c Cell) Text() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	}
	return ""
}

// Value returns the cell as a JSON-friendly value for the Sheets API.
func (c Cell) Value() any {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return ""
		}
		return c.Num
	}
	return ""
}

// Table is an ordered set of rows with a header, loaded from one worksheet.
type Table struct {
	Header []string
	Rows   [][]Cell
}

// Width returns the number of columns: the header length or the widest row.
func (t *Table) Width() int {
	w := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Values returns header and rows as a rectangular grid of API values.
func (t *Table) Values() [][]any {
	width := t.Width()
	out := make([][]any, 0, len(t.Rows)+1)

	header := make([]any, width)
	for i := range header {
		if i < len(t.Header) {
			header[i] = t.Header[i]
		} else {
			header[i] = ""
		}
	}
	out = append(out, header)

	for _, row := range t.Rows {
		vals := make([]any, width)
		for i := range vals {
			if i < len(row) {
				vals[i] = row[i].Value()
			} else {
				vals[i] = ""
			}
		}
		out = append(out, vals)
	}
	return out
}
