package sheets

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/overtime-sync/internal/model"
)

// Parity selects which absolute row numbers a parity aggregate sums.
type Parity int

// Row parities.
const (
	Even Parity = iota
	Odd
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// ColumnLetter converts a 0-based column index to its A1 letters:
// 0 is A, 25 is Z, 26 is AA.
func ColumnLetter(idx int) string {
	if idx < 0 {
		return ""
	}
	var b []byte
	for idx >= 0 {
		b = append(b, byte('A'+idx%26))
		idx = idx/26 - 1
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// ParityFormula sums the cells of column letter within w whose row number
// has the given parity.
func ParityFormula(letter string, w model.Window, p Parity) string {
	rng := fmt.Sprintf("%s%d:%s%d", letter, w.From, letter, w.To)
	return fmt.Sprintf("=SUMPRODUCT((MOD(ROW(%s),2)=%d)*%s)", rng, int(p), rng)
}

// BuildFormulaRows returns the odd and even aggregate rows for columns
// startCol through numCols-1.
func BuildFormulaRows(numCols, startCol int, odd, even model.Window) ([]any, []any) {
	if numCols <= startCol {
		return nil, nil
	}
	oddRow := make([]any, 0, numCols-startCol)
	evenRow := make([]any, 0, numCols-startCol)
	for col := startCol; col < numCols; col++ {
		letter := ColumnLetter(col)
		oddRow = append(oddRow, ParityFormula(letter, odd, Odd))
		evenRow = append(evenRow, ParityFormula(letter, even, Even))
	}
	return oddRow, evenRow
}

// SpreadsheetID extracts the document id from a spreadsheet URL. A bare id
// is returned unchanged.
func SpreadsheetID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if m := spreadsheetIDPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if ref != "" && !strings.ContainsAny(ref, "/:?#") {
		return ref, nil
	}
	return "", fmt.Errorf("cannot find spreadsheet id in %q", ref)
}

// quoteTab quotes a tab title for use in an A1 range.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// a1Range renders 'tab'!<fromCol><fromRow>:<toCol><toRow> with 0-based
// columns and 1-based rows.
func a1Range(tab string, fromCol, fromRow, toCol, toRow int) string {
	return fmt.Sprintf("%s!%s%d:%s%d", quoteTab(tab), ColumnLetter(fromCol), fromRow, ColumnLetter(toCol), toRow)
}
