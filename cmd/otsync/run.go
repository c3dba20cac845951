package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/overtime-sync/internal/cli"
	"github.com/Veraticus/overtime-sync/internal/config"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/Veraticus/overtime-sync/internal/pipeline"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [job...]",
		Short: "Generate reports and publish them to their sheets",
		Long: `Run one or more configured jobs. Each job logs into Odoo, configures the
report wizard, generates and downloads the workbook, then overwrites the
destination tab with its detail sheet.

Jobs run one after another. A failing job stops the run unless
--continue-on-error is given.`,
		Example: `  otsync run --all
  otsync run zip-20 zip-21
  otsync run mt-20 --date-from 2025-09-01 --date-to yesterday`,
		RunE: runSync,
	}

	cmd.Flags().Bool("all", false, "Run every configured job")
	cmd.Flags().String("date-from", "", "Override the start date (YYYY-MM-DD, today or yesterday)")
	cmd.Flags().String("date-to", "", "Override the end date (YYYY-MM-DD, today or yesterday)")
	cmd.Flags().Bool("no-ledger", false, "Do not record runs in the ledger")
	cmd.Flags().Bool("progress", false, "Show a progress bar per job")
	cmd.Flags().Bool("continue-on-error", false, "Keep going when a job fails")

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	dateFrom, _ := cmd.Flags().GetString("date-from")
	dateTo, _ := cmd.Flags().GetString("date-to")
	noLedger, _ := cmd.Flags().GetBool("no-ledger")
	showProgress, _ := cmd.Flags().GetBool("progress")
	continueOnError, _ := cmd.Flags().GetBool("continue-on-error")

	jobs, err := selectJobs(args, all)
	if err != nil {
		return err
	}
	jobs, err = overrideDates(jobs, dateFrom, dateTo, time.Now())
	if err != nil {
		return err
	}

	p, cleanup, err := newPipeline(cmd, pipelineOptions{
		withSource:      true,
		withLedger:      !noLedger,
		showProgress:    showProgress,
		continueOnError: continueOnError,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	slog.Info("Starting sync", "jobs", len(jobs))
	results, runErr := p.RunAll(cmd.Context(), jobs)

	printSummary(cmd.OutOrStdout(), results, runErr)
	return runErr
}

// selectJobs picks the named jobs, or every job with --all.
func selectJobs(names []string, all bool) ([]model.Job, error) {
	jobs, err := loadJobs()
	if err != nil {
		return nil, err
	}
	switch {
	case all && len(names) > 0:
		return nil, fmt.Errorf("give job names or --all, not both")
	case all:
		return jobs, nil
	case len(names) == 0:
		return nil, fmt.Errorf("no jobs selected: give job names or --all (see 'otsync jobs')")
	}
	return config.SelectJobs(jobs, names)
}

func printSummary(w io.Writer, results []*pipeline.RunResult, runErr error) {
	if len(results) == 0 {
		return
	}

	var lines []string
	for _, r := range results {
		if r.Publish == nil {
			lines = append(lines, cli.FormatError(fmt.Sprintf("%s: not published", r.Job)))
			continue
		}
		lines = append(lines, cli.FormatSuccess(fmt.Sprintf("%s: %d rows → %s (%s)",
			r.Job, r.Rows, r.Publish.DataRange, r.Duration.Round(time.Second))))
		if r.ArtifactPath != "" {
			lines = append(lines, cli.SubtleStyle.Render("    artifact: "+r.ArtifactPath))
		}
	}

	title := "Sync Complete"
	if runErr != nil {
		title = "Sync Finished With Errors"
	}
	if _, err := fmt.Fprintln(w, cli.RenderBox(title, strings.Join(lines, "\n"))); err != nil {
		slog.Warn("Failed to write summary", "error", err)
	}
}
