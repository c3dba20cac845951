package model

import (
	"fmt"
	"strings"
)

// Value input modes accepted by the Sheets values API.
const (
	ValueInputRaw         = "RAW"
	ValueInputUserEntered = "USER_ENTERED"
)

// Window is an inclusive, 1-based row range used by the parity aggregates.
type Window struct {
	From int
	To   int
}

// String renders the window as "from..to".
func (w Window) String() string {
	return fmt.Sprintf("%d..%d", w.From, w.To)
}

// Valid reports whether the window is non-empty and starts at row 1 or later.
func (w Window) Valid() bool {
	return w.From >= 1 && w.To >= w.From
}

// Destination identifies the spreadsheet tab a job overwrites.
type Destination struct {
	SpreadsheetURL string
	SpreadsheetID  string
	Tab            string
}

// Layout describes where the publisher puts rows, aggregates and formats.
type Layout struct {
	OddWindow  Window
	EvenWindow Window
	ValueInput string
	RowLimit   int
	FormulaRow int
	// DateRow is the 1-based sheet row that receives the date number format.
	DateRow int
	// FirstDataColumn is the 0-based column index where aggregates and date
	// formatting start.
	FirstDataColumn int
}

// DefaultLayout derives the aggregate positions the tracking sheets use for a
// given row limit: formulas four rows below the data, odd rows 7..N and even
// rows 8..N+1.
func DefaultLayout(rowLimit int) Layout {
	return Layout{
		RowLimit:        rowLimit,
		FormulaRow:      rowLimit + 4,
		OddWindow:       Window{From: 7, To: rowLimit},
		EvenWindow:      Window{From: 8, To: rowLimit + 1},
		ValueInput:      ValueInputUserEntered,
		DateRow:         4,
		FirstDataColumn: 3,
	}
}

// Validate checks the layout for internal consistency.
func (l Layout) Validate() error {
	if l.RowLimit <= 0 {
		return fmt.Errorf("row limit must be positive")
	}
	if !l.OddWindow.Valid() || !l.EvenWindow.Valid() {
		return fmt.Errorf("invalid aggregate windows %s / %s", l.OddWindow, l.EvenWindow)
	}
	// Header plus data occupy rows 1..RowLimit+1.
	if l.FormulaRow <= l.RowLimit+1 {
		return fmt.Errorf("formula row %d overlaps data rows 1..%d", l.FormulaRow, l.RowLimit+1)
	}
	if l.ValueInput != ValueInputRaw && l.ValueInput != ValueInputUserEntered {
		return fmt.Errorf("unknown value input option %q", l.ValueInput)
	}
	if l.DateRow < 1 {
		return fmt.Errorf("date row must be positive")
	}
	if l.FirstDataColumn < 0 {
		return fmt.Errorf("first data column cannot be negative")
	}
	return nil
}

// Job is one configured report-to-sheet sync.
type Job struct {
	Name           string
	ArtifactDir    string
	ArtifactSuffix string
	Destination    Destination
	Request        ReportRequest
	Layout         Layout
}

// Validate checks the job before any remote call is made.
func (j Job) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return fmt.Errorf("job name is required")
	}
	if err := j.Request.Validate(); err != nil {
		return fmt.Errorf("job %s: %w", j.Name, err)
	}
	if err := j.Layout.Validate(); err != nil {
		return fmt.Errorf("job %s: %w", j.Name, err)
	}
	if j.Destination.SpreadsheetURL == "" && j.Destination.SpreadsheetID == "" {
		return fmt.Errorf("job %s: destination spreadsheet is required", j.Name)
	}
	if strings.TrimSpace(j.Destination.Tab) == "" {
		return fmt.Errorf("job %s: destination tab is required", j.Name)
	}
	return nil
}
