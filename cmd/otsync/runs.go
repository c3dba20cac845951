package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/overtime-sync/internal/cli"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent runs from the ledger",
		RunE:  runListRuns,
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	cmd.Flags().String("job", "", "Show only the latest run of this job")

	return cmd
}

func runListRuns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")
	job, _ := cmd.Flags().GetString("job")

	ledger, err := initLedger(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ledger.Close(); closeErr != nil {
			slog.Error("failed to close run ledger", "error", closeErr)
		}
	}()

	var runs []model.Run
	if job != "" {
		run, err := ledger.LatestRun(ctx, job)
		if err != nil {
			return err
		}
		runs = []model.Run{*run}
	} else {
		runs, err = ledger.ListRuns(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
	}

	return writeRunsTable(cmd.OutOrStdout(), runs)
}

func writeRunsTable(out io.Writer, runs []model.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, cli.InfoStyle.Render("No runs recorded yet. Use 'otsync run' to start one."))
		return err
	}

	if _, err := fmt.Fprintln(out, cli.FormatTitle("Recent Runs")); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() {
		if flushErr := w.Flush(); flushErr != nil {
			slog.Error("failed to flush table writer", "error", flushErr)
		}
	}()

	h := cli.TableHeaderStyle
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		h.Render("Started"),
		h.Render("Job"),
		h.Render("Status"),
		h.Render("Dates"),
		h.Render("Wizard"),
		h.Render("Rows"),
		h.Render("Took")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, run := range runs {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s → %s\t%d\t%d\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Job,
			cli.StatusStyle(string(run.Status)).Render(string(run.Status)),
			run.DateFrom,
			run.DateTo,
			run.WizardID,
			run.RowsWritten,
			formatDuration(run)); err != nil {
			return fmt.Errorf("failed to write run row: %w", err)
		}
		if run.Error != "" {
			if _, err := fmt.Fprintf(w, "\t%s\n", cli.ErrorStyle.Render(run.Error)); err != nil {
				return fmt.Errorf("failed to write run error: %w", err)
			}
		}
	}
	return nil
}

func formatDuration(run model.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
}
