package cli

import (
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// shellGenerators writes the completion script of each supported shell
var shellGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error {
		return root.GenBashCompletionV2(w, true)
	},
	"zsh": func(root *cobra.Command, w io.Writer) error {
		return root.GenZshCompletion(w)
	},
	"fish": func(root *cobra.Command, w io.Writer) error {
		return root.GenFishCompletion(w, true)
	},
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

func supportedShells() []string {
	shells := make([]string, 0, len(shellGenerators))
	for shell := range shellGenerators {
		shells = append(shells, shell)
	}
	sort.Strings(shells)
	return shells
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [" + strings.Join(supportedShells(), "|") + "]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for node-upgrader to stdout.

Bash:
  $ source <(node-upgrader completion bash)

Zsh:
  $ node-upgrader completion zsh > "${fpath[1]}/_node-upgrader"

Fish:
  $ node-upgrader completion fish > ~/.config/fish/completions/node-upgrader.fish

PowerShell:
  PS> node-upgrader completion powershell | Out-String | Invoke-Expression

Flag values such as --output, --shutdown-policy and --version-oracle complete too.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             supportedShells(),
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return shellGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}

// completeValues completes a flag from a fixed set of values
func completeValues(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// registerValueCompletions attaches completeValues to each named flag of cmd
func registerValueCompletions(cmd *cobra.Command, values map[string][]string) {
	for flag, vs := range values {
		cobra.CheckErr(cmd.RegisterFlagCompletionFunc(flag, completeValues(vs...)))
	}
}
