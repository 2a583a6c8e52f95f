package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidyinbox/tidyinbox/internal/cleanup"
)

func newSweepCmd() *cobra.Command {
	var jsonPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Execute the cleanup policy against the mailbox",
		Long: `Apply the cleanup policy: archive, trash, mark read, star and label
threads as the rules dictate. Retention protections always apply. Requires
--yes unless you have dry-run confidence to spare.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("refusing to modify the mailbox without --yes; run `tidyinbox plan` first")
			}
			ctx := cmd.Context()
			d, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer d.cleanup()

			pol, err := loadPolicy(d.cfg, d.log)
			if err != nil {
				return err
			}
			run, runErr := d.svc.Execute(ctx, d.cfg.UserID, pol, d.cfg.MaxThreads)
			if runErr != nil && !errors.Is(runErr, cleanup.ErrAuditTrail) && run.ID == "" {
				return runErr
			}

			sum := cleanup.Summarize(run)
			if jsonPath != "" {
				if err := cleanup.WriteJSON(sum, jsonPath); err != nil {
					return err
				}
			} else if err := cleanup.PrintRunSummary(sum, cmd.OutOrStdout()); err != nil {
				return err
			}
			if runErr != nil {
				return fmt.Errorf("sweep finished with errors: %w", runErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&jsonPath, "json", "", "write the summary as JSON to this file")
	cmd.Flags().BoolVar(&force, "yes", false, "confirm that the mailbox may be modified")
	return cmd
}
