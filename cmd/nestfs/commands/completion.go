package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a completion script for nestfs on stdout.

Load it into the current shell:

  # bash
  source <(nestfs completion bash)

  # zsh
  source <(nestfs completion zsh)

  # fish
  nestfs completion fish | source

Or install it permanently:

  # bash (Linux)
  nestfs completion bash > /etc/bash_completion.d/nestfs

  # zsh
  nestfs completion zsh > "${fpath[1]}/_nestfs"

  # fish
  nestfs completion fish > ~/.config/fish/completions/nestfs.fish

  # powershell
  nestfs completion powershell >> $PROFILE`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
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
		}
		return nil
	},
}
