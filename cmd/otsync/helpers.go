package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/overtime-sync/internal/cli"
	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/config"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/Veraticus/overtime-sync/internal/odoo"
	"github.com/Veraticus/overtime-sync/internal/pipeline"
	"github.com/Veraticus/overtime-sync/internal/service"
	"github.com/Veraticus/overtime-sync/internal/sheets"
	"github.com/Veraticus/overtime-sync/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// pipelineOptions selects the collaborators a command needs.
type pipelineOptions struct {
	withSource      bool
	withLedger      bool
	showProgress    bool
	continueOnError bool
}

// initLedger opens the run ledger at the configured path.
func initLedger(ctx context.Context) (service.RunLedger, error) {
	store, err := storage.Open(ctx, config.LedgerPath(viper.GetViper()))
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return store, nil
}

// newPipeline wires the configured Odoo client, Sheets publisher and ledger.
// The returned cleanup closes whatever was opened.
func newPipeline(cmd *cobra.Command, opts pipelineOptions) (*pipeline.Pipeline, func(), error) {
	ctx := cmd.Context()
	v := viper.GetViper()
	logger := slog.Default()
	cleanup := func() {}

	var source service.ReportSource
	reuseWizard := v.GetBool("odoo.reuse_wizard")
	if opts.withSource {
		odooConfig, err := config.LoadOdooConfig(v)
		if err != nil {
			return nil, cleanup, common.NewUserError("Odoo is not configured: set ODOO_URL, ODOO_DB, ODOO_USERNAME and ODOO_PASSWORD", err)
		}
		client, err := odoo.NewClient(*odooConfig, logger)
		if err != nil {
			return nil, cleanup, err
		}
		source = client
		reuseWizard = odooConfig.ReuseWizard
	}

	sheetsConfig, err := config.LoadSheetsConfig(v)
	if err != nil {
		return nil, cleanup, common.NewUserError("Google Sheets is not configured: provide credentials.json or run 'otsync auth sheets'", err)
	}
	publisher, err := sheets.New(ctx, *sheetsConfig, logger)
	if err != nil {
		return nil, cleanup, err
	}

	retryOptions, err := config.LoadRetryOptions(v)
	if err != nil {
		return nil, cleanup, err
	}

	p := pipeline.NewWithConfig(source, publisher, common.NewRetryPolicy(retryOptions, logger), logger, pipeline.Config{
		ReuseWizard:     reuseWizard,
		ContinueOnError: opts.continueOnError || v.GetBool("run.continue_on_error"),
	})

	if opts.withLedger {
		ledger, err := initLedger(ctx)
		if err != nil {
			return nil, cleanup, err
		}
		p.WithLedger(ledger)
		cleanup = func() {
			if closeErr := ledger.Close(); closeErr != nil {
				slog.Error("failed to close run ledger", "error", closeErr)
			}
		}
	}

	if opts.showProgress {
		p.WithProgress(cli.NewStepProgress(cmd.ErrOrStderr()))
	}

	return p, cleanup, nil
}

// loadJobs resolves the configured jobs against the current date.
func loadJobs() ([]model.Job, error) {
	return config.LoadJobs(viper.GetViper(), time.Now())
}

// overrideDates replaces the date range of every job. Empty values keep the
// configured dates.
func overrideDates(jobs []model.Job, from, to string, now time.Time) ([]model.Job, error) {
	if from == "" && to == "" {
		return jobs, nil
	}
	out := make([]model.Job, 0, len(jobs))
	for _, job := range jobs {
		if from != "" {
			d, err := config.ResolveDate(from, now)
			if err != nil {
				return nil, fmt.Errorf("--date-from: %w", err)
			}
			job.Request.DateFrom = d
		}
		if to != "" {
			d, err := config.ResolveDate(to, now)
			if err != nil {
				return nil, fmt.Errorf("--date-to: %w", err)
			}
			job.Request.DateTo = d
		}
		if err := job.Validate(); err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}
