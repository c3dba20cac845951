package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/overtime-sync/internal/config"
	"github.com/spf13/cobra"
)

func publishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Republish a saved report workbook without contacting Odoo",
		Long: `Publish a workbook that an earlier run saved to disk. The job supplies
the destination tab, row limit and formula layout; Odoo is not contacted.`,
		Example: `  otsync publish --job zip-20 --file ot_analysis_2025-08-01_to_2025-09-14_cat20.xlsx`,
		RunE:    runPublish,
	}

	cmd.Flags().String("job", "", "Job whose destination and layout to use (required)")
	cmd.Flags().String("file", "", "Path to the saved .xlsx report (required)")
	cmd.Flags().Bool("no-ledger", false, "Do not record the publish in the ledger")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runPublish(cmd *cobra.Command, _ []string) error {
	jobName, _ := cmd.Flags().GetString("job")
	file, _ := cmd.Flags().GetString("file")
	noLedger, _ := cmd.Flags().GetBool("no-ledger")

	jobs, err := loadJobs()
	if err != nil {
		return err
	}
	selected, err := config.SelectJobs(jobs, []string{jobName})
	if err != nil {
		return err
	}

	p, cleanup, err := newPipeline(cmd, pipelineOptions{withLedger: !noLedger})
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := p.PublishFile(cmd.Context(), selected[0], config.ExpandPath(file))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Published %d rows to %s in %s\n",
		result.Rows, result.Publish.DataRange, result.Duration.Round(time.Millisecond))
	return err
}
