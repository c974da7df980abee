package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aryankumar/node-upgrader/internal/output"
	"github.com/aryankumar/node-upgrader/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit and build details of this binary.

Plain text by default; pass -o to get a table, JSON or YAML.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()

			flag := cmd.Flags().Lookup("output")
			if flag == nil || !flag.Changed {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return err
			}

			format, err := output.ParseFormat(flag.Value.String())
			if err != nil {
				return err
			}
			noColor, _ := cmd.Flags().GetBool("no-color")
			return output.NewFormatter(format, output.WithNoColor(noColor)).FormatVersion(cmd.OutOrStdout(), info)
		},
	}
}
