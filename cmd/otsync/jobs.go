package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/overtime-sync/internal/cli"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/Veraticus/overtime-sync/internal/sheets"
	"github.com/spf13/cobra"
)

func jobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List configured jobs",
		Long: `Display every configured job with its resolved date range, filters and
destination. Relative dates such as "yesterday" are resolved against today.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := loadJobs()
			if err != nil {
				return err
			}
			return writeJobsTable(cmd.OutOrStdout(), jobs)
		},
	}
}

func writeJobsTable(out io.Writer, jobs []model.Job) error {
	if _, err := fmt.Fprintln(out, cli.FormatTitle("Configured Jobs")); err != nil {
		return err
	}

	// Create table writer
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() {
		if flushErr := w.Flush(); flushErr != nil {
			slog.Error("failed to flush table writer", "error", flushErr)
		}
	}()

	h := cli.TableHeaderStyle
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		h.Render("Job"),
		h.Render("Report"),
		h.Render("Dates"),
		h.Render("Filter"),
		h.Render("Sheet"),
		h.Render("Tab"),
		h.Render("Rows")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, job := range jobs {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s → %s\t%s\t%s\t%s\t%d\n",
			job.Name,
			job.Request.ReportType,
			job.Request.From(),
			job.Request.To(),
			formatFilter(job.Request),
			shortSheetID(job.Destination),
			job.Destination.Tab,
			job.Layout.RowLimit); err != nil {
			return fmt.Errorf("failed to write job row: %w", err)
		}
	}
	return nil
}

func formatFilter(req model.ReportRequest) string {
	if req.Mode == model.ModeCompany {
		return fmt.Sprintf("company %d", req.CompanyID)
	}
	return fmt.Sprintf("category %d / company %d", req.CategoryID, req.CompanyID)
}

func shortSheetID(dest model.Destination) string {
	id := dest.SpreadsheetID
	if id == "" {
		var err error
		if id, err = sheets.SpreadsheetID(dest.SpreadsheetURL); err != nil {
			return "?"
		}
	}
	if len(id) > 12 {
		return id[:12] + "…"
	}
	return strings.TrimSpace(id)
}
