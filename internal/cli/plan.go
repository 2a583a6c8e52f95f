package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidyinbox/tidyinbox/internal/cleanup"
)

func newPlanCmd() *cobra.Command {
	var jsonPath string
	var showActions bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Dry-run the cleanup policy and show what a sweep would do",
		Long: `Evaluate the cleanup policy against the mailbox without changing
anything. The planned actions are recorded as a dry-run in run history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := setup(ctx, true)
			if err != nil {
				return err
			}
			defer d.cleanup()

			pol, err := loadPolicy(d.cfg, d.log)
			if err != nil {
				return err
			}
			run, err := d.svc.DryRun(ctx, d.cfg.UserID, pol, d.cfg.MaxThreads)
			if err != nil {
				return err
			}
			sum := cleanup.Summarize(run)
			if jsonPath != "" {
				return cleanup.WriteJSON(sum, jsonPath)
			}
			if err := cleanup.PrintRunSummary(sum, cmd.OutOrStdout()); err != nil {
				return err
			}
			if showActions {
				for _, a := range run.Actions {
					fmt.Fprintf(cmd.OutOrStdout(), "  %-12s thread %s", a.Action, a.ThreadID)
					if a.Label != "" {
						fmt.Fprintf(cmd.OutOrStdout(), " (%s)", a.Label)
					}
					fmt.Fprintln(cmd.OutOrStdout())
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&jsonPath, "json", "", "write the summary as JSON to this file")
	cmd.Flags().BoolVar(&showActions, "actions", false, "list every planned action")
	return cmd
}
