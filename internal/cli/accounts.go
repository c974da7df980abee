package cli

import (
	"github.com/spf13/cobra"

	"github.com/aryankumar/node-upgrader/internal/output"
)

func newAccountsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the configured accounts and whether they are skipped",
		Example: `  # List the accounts of a file
  node-upgrader accounts --accounts-file accounts.yaml

  # Same, as YAML
  node-upgrader accounts --accounts-file accounts.yaml -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, skipped, err := a.loadInventory(cmd.Context())
			if err != nil {
				return err
			}

			formatter := a.formatter()
			return formatter.FormatAccounts(cmd.OutOrStdout(), output.AccountRows(accounts, skipped))
		},
	}

	return cmd
}
