package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/Veraticus/overtime-sync/internal/service"
	"google.golang.org/api/sheets/v4"
)

// DateFormatPattern is applied to the date row of the destination tab.
const DateFormatPattern = "dd-mm-yyyy"

var _ service.Publisher = (*Publisher)(nil)

// Publisher overwrites a spreadsheet tab with a prepared table, appends the
// parity aggregates and formats the date row.
type Publisher struct {
	api    API
	logger *slog.Logger
	retry  common.RetryPolicy
	config Config
}

// NewPublisher creates a publisher over api.
func NewPublisher(api API, config Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Publisher{
		api:    api,
		config: config,
		logger: logger,
		retry:  common.NewRetryPolicy(config.retryOptions(), logger),
	}
}

// New creates a publisher backed by the Google Sheets API.
func New(ctx context.Context, config Config, logger *slog.Logger) (*Publisher, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := NewService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewPublisher(NewGoogleAPI(srv), config, logger), nil
}

// Publish clears dest, writes the header and rows in chunks, writes the odd
// and even aggregate rows and applies the date format. RowsWritten counts
// sheet rows including the header.
func (p *Publisher) Publish(ctx context.Context, dest model.Destination, table *model.Table, layout model.Layout) (*service.PublishResult, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	width := table.Width()
	if width == 0 {
		return nil, fmt.Errorf("table has no columns")
	}

	spreadsheetID := dest.SpreadsheetID
	if spreadsheetID == "" {
		id, err := SpreadsheetID(dest.SpreadsheetURL)
		if err != nil {
			return nil, err
		}
		spreadsheetID = id
	}

	log := p.logger.With("spreadsheet_id", spreadsheetID, "tab", dest.Tab)

	sheetID, err := common.Retry(ctx, p.retry, "sheet lookup", func(ctx context.Context) (int64, error) {
		return p.api.SheetID(ctx, spreadsheetID, dest.Tab)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tab: %w", err)
	}

	err = p.retry.Do(ctx, "clear", func(ctx context.Context) error {
		return p.api.Clear(ctx, spreadsheetID, quoteTab(dest.Tab))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clear tab: %w", err)
	}

	result := &service.PublishResult{}

	values := table.Values()
	lastCol := width - 1
	for start := 0; start < len(values); start += p.config.BatchSize {
		end := min(start+p.config.BatchSize, len(values))
		rng := a1Range(dest.Tab, 0, start+1, lastCol, end)
		chunk := values[start:end]

		err := p.retry.Do(ctx, "write chunk", func(ctx context.Context) error {
			return p.api.Update(ctx, spreadsheetID, rng, chunk, layout.ValueInput)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to write rows %d-%d: %w", start+1, end, err)
		}

		result.Chunks++
		log.Debug("wrote chunk", "range", rng, "rows", len(chunk))
	}
	result.RowsWritten = len(values)
	result.DataRange = a1Range(dest.Tab, 0, 1, lastCol, len(values))

	if width > layout.FirstDataColumn {
		odd, even := BuildFormulaRows(width, layout.FirstDataColumn, layout.OddWindow, layout.EvenWindow)
		rng := a1Range(dest.Tab, layout.FirstDataColumn, layout.FormulaRow, lastCol, layout.FormulaRow+1)
		err := p.retry.Do(ctx, "write formulas", func(ctx context.Context) error {
			return p.api.Update(ctx, spreadsheetID, rng, [][]any{odd, even}, model.ValueInputUserEntered)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to write formulas: %w", err)
		}
		result.FormulaRange = rng

		formatRange := a1Range(dest.Tab, layout.FirstDataColumn, layout.DateRow, lastCol, layout.DateRow)
		err = p.retry.Do(ctx, "format dates", func(ctx context.Context) error {
			return p.api.BatchUpdate(ctx, spreadsheetID, []*sheets.Request{dateFormatRequest(sheetID, layout, width)})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to format date row: %w", err)
		}
		result.FormatRange = formatRange
	} else {
		log.Warn("table narrower than first data column, skipping formulas and date format",
			"columns", width, "first_data_column", layout.FirstDataColumn)
	}

	log.Info("published",
		"rows", result.RowsWritten,
		"chunks", result.Chunks,
		"formulas", result.FormulaRange,
		"date_format", result.FormatRange)

	return result, nil
}

// dateFormatRequest formats the date row from the first data column to the
// last column as a date.
func dateFormatRequest(sheetID int64, layout model.Layout, width int) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    int64(layout.DateRow - 1),
				EndRowIndex:      int64(layout.DateRow),
				StartColumnIndex: int64(layout.FirstDataColumn),
				EndColumnIndex:   int64(width),
				ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					NumberFormat: &sheets.NumberFormat{
						Type:    "DATE",
						Pattern: DateFormatPattern,
					},
				},
			},
			Fields: "userEnteredFormat.numberFormat",
		},
	}
}
