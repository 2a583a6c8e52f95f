package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidyinbox/tidyinbox/internal/cleanup"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect cleanup run history",
	}
	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsShowCmd())
	cmd.AddCommand(newRunsReportCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, store, err := openStore(logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListByUser(cmd.Context(), cfg.UserID, limit, time.Time{})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}
			for _, run := range runs {
				mode := "sweep"
				if run.DryRun {
					mode = "plan"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-6s %-11s %3d actions  %s\n",
					run.StartedAt.Format(time.RFC3339), mode, run.Status,
					len(run.Actions), run.ID)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	var jsonPath string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run's summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			_, store, err := openStore(logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, err := store.FindByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sum := cleanup.Summarize(run)
			if jsonPath != "" {
				return cleanup.WriteJSON(sum, jsonPath)
			}
			return cleanup.PrintRunSummary(sum, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&jsonPath, "json", "", "write the summary as JSON to this file")
	return cmd
}

func newRunsReportCmd() *cobra.Command {
	var days int
	var jsonPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate run statistics over a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, store, err := openStore(logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			to := time.Now()
			from := to.AddDate(0, 0, -days)
			runs, err := store.ListByUser(cmd.Context(), cfg.UserID, 0, time.Time{})
			if err != nil {
				return err
			}
			rep := cleanup.NewPeriodReport(cfg.UserID, from, to, runs)
			if jsonPath != "" {
				return cleanup.WriteJSON(rep, jsonPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"tidyinbox report — last %d days: %d runs (%d completed, %d failed, %d plans)\n",
				days, rep.TotalRuns, rep.CompletedRuns, rep.FailedRuns, rep.DryRuns)
			fmt.Fprintf(cmd.OutOrStdout(),
				"  deleted: %d  archived: %d  storage freed: %d bytes\n",
				rep.ThreadsDeleted, rep.ThreadsArchived, rep.StorageFreedBytes)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "period length in days")
	cmd.Flags().StringVar(&jsonPath, "json", "", "write the report as JSON to this file")
	return cmd
}
