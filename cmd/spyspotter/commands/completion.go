package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var errSubCommandRequired = errors.New("subcommand is required")

func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate the autocompletion script for the specified shell",
		Long: `To load completions:

Bash:
  $ source <(spyspotter completion bash)

Zsh:
  $ spyspotter completion zsh > "${fpath[1]}/_spyspotter"

Fish:
  $ spyspotter completion fish | source

PowerShell:
  PS> spyspotter completion powershell | Out-String | Invoke-Expression
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return errSubCommandRequired
			}
		},
	}
}
