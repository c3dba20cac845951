package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/overtime-sync/internal/model"
)

// Ledger failures are logged and never fail a sync.

func (p *Pipeline) startRun(ctx context.Context, job model.Job, logger *slog.Logger) *model.Run {
	run := &model.Run{
		Job:        job.Name,
		ReportType: job.Request.ReportType,
		DateFrom:   job.Request.From(),
		DateTo:     job.Request.To(),
		CategoryID: job.Request.CategoryID,
		CompanyID:  job.Request.CompanyID,
		StartedAt:  p.now().UTC(),
	}
	if p.ledger == nil {
		return run
	}
	if err := p.ledger.StartRun(ctx, run); err != nil {
		logger.Warn("failed to record run start", "error", err)
		run.ID = ""
	}
	return run
}

func (p *Pipeline) updateRun(ctx context.Context, run *model.Run, logger *slog.Logger) {
	if p.ledger == nil || run.ID == "" {
		return
	}
	if err := p.ledger.UpdateRun(ctx, run); err != nil {
		logger.Warn("failed to record run progress", "run_id", run.ID, "error", err)
	}
}

func (p *Pipeline) finishRun(ctx context.Context, run *model.Run, runErr error, logger *slog.Logger) {
	if p.ledger == nil || run.ID == "" {
		return
	}
	run.Status = model.RunStatusSucceeded
	if runErr != nil {
		run.Status = model.RunStatusFailed
		run.Error = runErr.Error()
	}
	finished := p.now().UTC()
	run.FinishedAt = &finished

	// Record the outcome even when the sync was canceled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.ledger.FinishRun(ctx, run); err != nil {
		logger.Warn("failed to record run result", "run_id", run.ID, "error", err)
	}
}
