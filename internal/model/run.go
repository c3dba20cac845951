package model

import "time"

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one pipeline execution as kept in the run ledger.
type Run struct {
	StartedAt    time.Time
	FinishedAt   *time.Time
	ID           string
	Job          string
	ReportType   string
	DateFrom     string
	DateTo       string
	ReportName   string
	ArtifactPath string
	Error        string
	Status       RunStatus
	CategoryID   int64
	CompanyID    int64
	WizardID     int64
	RowsWritten  int
}
