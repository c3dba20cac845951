// Package pipeline runs the report-to-sheet sync: it drives the ERP report
// wizard, extracts the downloaded workbook and publishes it to a tracking sheet.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/Veraticus/overtime-sync/internal/report"
	"github.com/Veraticus/overtime-sync/internal/service"
)

// Pipeline orchestrates one or more sync jobs.
type Pipeline struct {
	source    service.ReportSource
	publisher service.Publisher
	ledger    service.RunLedger
	progress  Progress
	logger    *slog.Logger
	now       func() time.Time
	policy    common.RetryPolicy
	config    Config
}

// Config holds the pipeline switches.
type Config struct {
	// ReuseWizard looks up an existing wizard record with the same filters
	// before creating a new one.
	ReuseWizard     bool
	ContinueOnError bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{ReuseWizard: true}
}

// RunResult summarizes a finished job.
type RunResult struct {
	Publish      *service.PublishResult
	Job          string
	RunID        string
	ReportName   string
	ArtifactPath string
	WizardID     int64
	Rows         int
	Duration     time.Duration
}

// New creates a pipeline with the default configuration.
func New(source service.ReportSource, publisher service.Publisher, policy common.RetryPolicy, logger *slog.Logger) *Pipeline {
	return NewWithConfig(source, publisher, policy, logger, DefaultConfig())
}

// NewWithConfig creates a pipeline with custom configuration.
func NewWithConfig(source service.ReportSource, publisher service.Publisher, policy common.RetryPolicy, logger *slog.Logger, config Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:    source,
		publisher: publisher,
		policy:    policy,
		logger:    logger,
		progress:  nopProgress{},
		now:       time.Now,
		config:    config,
	}
}

// WithLedger records every run in ledger.
func (p *Pipeline) WithLedger(ledger service.RunLedger) *Pipeline {
	p.ledger = ledger
	return p
}

// WithProgress reports step events to progress.
func (p *Pipeline) WithProgress(progress Progress) *Pipeline {
	if progress == nil {
		progress = nopProgress{}
	}
	p.progress = progress
	return p
}

// Run executes every step of job in order. A failure aborts the remaining
// steps, so nothing is written to the destination unless the report was
// downloaded and extracted.
func (p *Pipeline) Run(ctx context.Context, job model.Job) (*RunResult, error) {
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	logger := p.logger.With("job", job.Name)
	logger.Info("starting sync",
		"report_type", job.Request.ReportType,
		"date_from", job.Request.From(),
		"date_to", job.Request.To(),
		"category_id", job.Request.CategoryID,
		"company_id", job.Request.CompanyID)

	start := p.now()
	run := p.startRun(ctx, job, logger)
	p.progress.JobStarted(job.Name, len(FullSteps))

	result := &RunResult{Job: job.Name, RunID: run.ID}
	err := p.run(ctx, job, run, result, logger)
	result.Duration = p.now().Sub(start)

	p.finishRun(ctx, run, err, logger)
	p.progress.JobFinished(job.Name, err)

	if err != nil {
		logger.Error("sync failed", "error", err)
		return result, fmt.Errorf("job %s: %w", job.Name, err)
	}
	logger.Info("sync complete",
		"rows", result.Rows,
		"range", result.Publish.DataRange,
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, job model.Job, run *model.Run, result *RunResult, logger *slog.Logger) error {
	req := job.Request

	session, err := stepValue(ctx, p, job.Name, StepAuthenticate, p.source.Authenticate)
	if err != nil {
		return err
	}
	logger.Debug("authenticated", "uid", session.UID)

	token, err := stepValue(ctx, p, job.Name, StepCSRFToken, p.source.FetchCSRFToken)
	if err != nil {
		return err
	}
	session.CSRFToken = token

	defaults, err := stepValue(ctx, p, job.Name, StepOnchange, func(ctx context.Context) (map[string]any, error) {
		return p.source.Onchange(ctx, session, req)
	})
	if err != nil {
		return err
	}
	logger.Debug("wizard defaults loaded", "fields", len(defaults))

	wizardID, err := stepValue(ctx, p, job.Name, StepConfigure, func(ctx context.Context) (int64, error) {
		return p.configure(ctx, session, req, logger)
	})
	if err != nil {
		return err
	}
	result.WizardID = wizardID
	run.WizardID = wizardID
	logger.Info("report configured", "wizard_id", wizardID)

	reportName, err := stepValue(ctx, p, job.Name, StepGenerate, func(ctx context.Context) (string, error) {
		return p.source.TriggerGeneration(ctx, session, req, wizardID)
	})
	if err != nil {
		return err
	}
	result.ReportName = reportName
	run.ReportName = reportName
	p.updateRun(ctx, run, logger)

	data, err := stepValue(ctx, p, job.Name, StepDownload, func(ctx context.Context) ([]byte, error) {
		return p.source.DownloadArtifact(ctx, session, req, wizardID, reportName)
	})
	if err != nil {
		return err
	}
	logger.Info("report downloaded", "report_name", reportName, "bytes", len(data))

	if job.ArtifactDir != "" {
		path, err := report.SaveArtifact(job.ArtifactDir, req.ArtifactName(job.ArtifactSuffix), data)
		if err != nil {
			return err
		}
		result.ArtifactPath = path
		run.ArtifactPath = path
		p.updateRun(ctx, run, logger)
		logger.Info("artifact saved", "path", path)
	}

	return p.extractAndPublish(ctx, job, data, run, result)
}

// configure returns the wizard record for req, reusing a matching record
// when enabled. A failed lookup falls back to creating a new record.
func (p *Pipeline) configure(ctx context.Context, session model.Session, req model.ReportRequest, logger *slog.Logger) (int64, error) {
	if p.config.ReuseWizard {
		id, found, err := p.source.FindWizard(ctx, session, req)
		switch {
		case err != nil:
			logger.Warn("wizard lookup failed, a duplicate record may be created", "error", err)
		case found:
			logger.Info("reusing wizard record", "wizard_id", id)
			return id, nil
		}
	}
	return p.source.ConfigureReport(ctx, session, req)
}

// PublishFile republishes a retained workbook for job without contacting the ERP.
func (p *Pipeline) PublishFile(ctx context.Context, job model.Job, path string) (*RunResult, error) {
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	logger := p.logger.With("job", job.Name)
	logger.Info("publishing retained artifact", "path", path)

	start := p.now()
	run := p.startRun(ctx, job, logger)
	run.ArtifactPath = path
	p.progress.JobStarted(job.Name, len(PublishSteps))

	result := &RunResult{Job: job.Name, RunID: run.ID, ArtifactPath: path}
	err = p.extractAndPublish(ctx, job, data, run, result)
	result.Duration = p.now().Sub(start)

	p.finishRun(ctx, run, err, logger)
	p.progress.JobFinished(job.Name, err)

	if err != nil {
		logger.Error("publish failed", "error", err)
		return result, fmt.Errorf("job %s: %w", job.Name, err)
	}
	return result, nil
}

func (p *Pipeline) extractAndPublish(ctx context.Context, job model.Job, data []byte, run *model.Run, result *RunResult) error {
	var table *model.Table
	err := p.step(job.Name, StepExtract, func() error {
		raw, err := report.ReadSecondSheet(data)
		if err != nil {
			return err
		}
		table = report.Prepare(raw, job.Layout.RowLimit)
		if !report.IsFinite(table) {
			return fmt.Errorf("prepared table still holds non-finite values")
		}
		return nil
	})
	if err != nil {
		return err
	}
	result.Rows = len(table.Rows)

	// The publisher retries its own API calls.
	err = p.step(job.Name, StepPublish, func() error {
		published, err := p.publisher.Publish(ctx, job.Destination, table, job.Layout)
		if err != nil {
			return err
		}
		result.Publish = published
		run.RowsWritten = published.RowsWritten
		return nil
	})
	return err
}

// RunAll runs jobs one after another. It stops at the first failure unless
// ContinueOnError is set, in which case every failure is joined into the
// returned error.
func (p *Pipeline) RunAll(ctx context.Context, jobs []model.Job) ([]*RunResult, error) {
	results := make([]*RunResult, 0, len(jobs))
	var errs []error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := p.Run(ctx, job)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			errs = append(errs, err)
			if !p.config.ContinueOnError {
				break
			}
		}
	}
	return results, errors.Join(errs...)
}

func (p *Pipeline) step(job string, step Step, fn func() error) error {
	p.progress.StepStarted(job, step)
	err := fn()
	p.progress.StepFinished(job, step, err)
	return err
}

// stepValue runs a remote step under the retry policy.
func stepValue[T any](ctx context.Context, p *Pipeline, job string, step Step, op func(context.Context) (T, error)) (T, error) {
	var v T
	err := p.step(job, step, func() error {
		var err error
		v, err = common.Retry(ctx, p.policy, string(step), op)
		return err
	})
	return v, err
}
