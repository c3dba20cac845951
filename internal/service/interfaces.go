// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/overtime-sync/internal/model"
)

// ReportSource is the ERP side of the pipeline: it configures the report
// wizard, triggers generation and downloads the resulting workbook.
type ReportSource interface {
	Authenticate(ctx context.Context) (model.Session, error)
	FetchCSRFToken(ctx context.Context) (string, error)
	Onchange(ctx context.Context, session model.Session, req model.ReportRequest) (map[string]any, error)
	FindWizard(ctx context.Context, session model.Session, req model.ReportRequest) (int64, bool, error)
	ConfigureReport(ctx context.Context, session model.Session, req model.ReportRequest) (int64, error)
	TriggerGeneration(ctx context.Context, session model.Session, req model.ReportRequest, wizardID int64) (string, error)
	DownloadArtifact(ctx context.Context, session model.Session, req model.ReportRequest, wizardID int64, reportName string) ([]byte, error)
}

// Publisher writes a prepared table into a destination spreadsheet tab.
type Publisher interface {
	Publish(ctx context.Context, dest model.Destination, table *model.Table, layout model.Layout) (*PublishResult, error)
}

// RunLedger records pipeline runs.
type RunLedger interface {
	StartRun(ctx context.Context, run *model.Run) error
	UpdateRun(ctx context.Context, run *model.Run) error
	FinishRun(ctx context.Context, run *model.Run) error
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	LatestRun(ctx context.Context, job string) (*model.Run, error)
	Close() error
}

// PublishResult summarizes what a publish wrote.
type PublishResult struct {
	DataRange    string
	FormulaRange string
	FormatRange  string
	RowsWritten  int
	Chunks       int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Jitter       time.Duration
	Multiplier   float64
	// TransientOnly limits retries to transport and quota failures; step
	// errors for missing response fields then fail immediately.
	TransientOnly bool
}

// DefaultRetryOptions mirrors the schedule the report scripts used:
// five attempts, 2s base delay doubling each time, up to 1s of jitter.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  5,
		InitialDelay: 2 * time.Second,
		MaxDelay:     time.Minute,
		Jitter:       time.Second,
		Multiplier:   2.0,
	}
}

// QuotaRetryOptions is the schedule for chunk writes that hit the Sheets
// quota: 1s doubling, capped, with up to 1s of jitter.
func QuotaRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:   5,
		InitialDelay:  time.Second,
		MaxDelay:      32 * time.Second,
		Jitter:        time.Second,
		Multiplier:    2.0,
		TransientOnly: true,
	}
}
