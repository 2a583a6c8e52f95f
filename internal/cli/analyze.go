package cli

import (
	"github.com/spf13/cobra"

	"github.com/tidyinbox/tidyinbox/internal/cleanup"
)

func newAnalyzeCmd() *cobra.Command {
	var jsonPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute mailbox statistics and a health score",
		Long: `Fetch a snapshot of the mailbox and report thread counts, category and
age breakdowns, and a 0-100 health score. Read-only: nothing is modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := setup(ctx, true)
			if err != nil {
				return err
			}
			defer d.cleanup()

			analysis, err := d.svc.Analyze(ctx, d.cfg.UserID, d.cfg.MaxThreads)
			if err != nil {
				return err
			}
			if jsonPath != "" {
				return cleanup.WriteJSON(analysis, jsonPath)
			}
			return cleanup.PrintAnalysis(analysis, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&jsonPath, "json", "", "write the analysis as JSON to this file")
	return cmd
}
