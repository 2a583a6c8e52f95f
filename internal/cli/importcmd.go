package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidyinbox/tidyinbox/internal/config"
	"github.com/tidyinbox/tidyinbox/internal/gmailctl"
	"github.com/tidyinbox/tidyinbox/internal/policy"
)

func newImportCmd() *cobra.Command {
	var binary, gmailctlDir string

	cmd := &cobra.Command{
		Use:   "import-gmailctl",
		Short: "Convert a gmailctl filter config into a cleanup policy",
		Long: `Compile the local gmailctl configuration and translate the filters that
map onto cleanup semantics into policy rules. The policy is printed as JSON;
redirect it to a file and point policy_path at it. Filters with no cleanup
equivalent are skipped with a warning.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := newLogger()

			exporter := gmailctl.Exporter{Binary: binary, ConfigDir: gmailctlDir}
			export, err := exporter.Export(cmd.Context())
			if err != nil {
				return fmt.Errorf("compile gmailctl config: %w", err)
			}

			rules, labeling := policy.FromGmailctl(export, logger)
			pol := policy.Policy{
				UserID:        cfg.UserID,
				Name:          "imported from gmailctl",
				CleanupRules:  rules,
				LabelingRules: labeling,
				Retention:     policy.DefaultRetention(),
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pol)
		},
	}
	cmd.Flags().StringVar(&binary, "gmailctl-bin", "gmailctl", "gmailctl binary to invoke")
	cmd.Flags().StringVar(&gmailctlDir, "gmailctl-dir", "", "gmailctl config directory (its default when empty)")
	return cmd
}
