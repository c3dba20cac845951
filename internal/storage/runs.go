package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/google/uuid"
)

const runColumns = `id, job, report_type, date_from, date_to, category_id, company_id,
	wizard_id, report_name, artifact_path, rows_written, status, error, started_at, finished_at`

// StartRun inserts run with status running. An empty ID is filled with a
// new UUID and a zero StartedAt with the current time.
func (s *SQLiteStorage) StartRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = model.RunStatusRunning
	if err := validateRun(run); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Job, run.ReportType, run.DateFrom, run.DateTo, run.CategoryID, run.CompanyID,
		run.WizardID, run.ReportName, run.ArtifactPath, run.RowsWritten, string(run.Status), run.Error,
		run.StartedAt.UTC(), nil,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// UpdateRun stores the progress fields of a running run.
func (s *SQLiteStorage) UpdateRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET wizard_id = ?, report_name = ?, artifact_path = ?, rows_written = ?
		WHERE id = ?`,
		run.WizardID, run.ReportName, run.ArtifactPath, run.RowsWritten, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return expectOneRow(result, run.ID)
}

// FinishRun records the final status of a run.
func (s *SQLiteStorage) FinishRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}
	if run.Status == model.RunStatusRunning {
		return fmt.Errorf("%w: finished run must succeed or fail", ErrInvalidRun)
	}
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET wizard_id = ?, report_name = ?, artifact_path = ?, rows_written = ?,
			status = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		run.WizardID, run.ReportName, run.ArtifactPath, run.RowsWritten,
		string(run.Status), run.Error, run.FinishedAt.UTC(), run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return expectOneRow(result, run.ID)
}

// ListRuns returns up to limit runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recent run of job.
func (s *SQLiteStorage) LatestRun(ctx context.Context, job string) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(job, "job"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE job = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1`, job)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no runs for job %s: %w", job, common.ErrNotFound)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*model.Run, error) {
	var (
		run        model.Run
		status     string
		finishedAt sql.NullTime
	)
	err := sc.Scan(
		&run.ID, &run.Job, &run.ReportType, &run.DateFrom, &run.DateTo,
		&run.CategoryID, &run.CompanyID, &run.WizardID, &run.ReportName,
		&run.ArtifactPath, &run.RowsWritten, &status, &run.Error,
		&run.StartedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Status = model.RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func expectOneRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return nil
}
