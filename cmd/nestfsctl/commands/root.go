// Package commands implements the CLI commands for the nestfsctl client.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	ctxcmd "github.com/marmos91/nestfs/cmd/nestfsctl/commands/context"
	drivecmd "github.com/marmos91/nestfs/cmd/nestfsctl/commands/drive"
	nodecmd "github.com/marmos91/nestfs/cmd/nestfsctl/commands/node"
	"github.com/marmos91/nestfs/internal/cli/credentials"
)

// Build metadata, overridden through ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd is the entry point for all nestfsctl subcommands.
var rootCmd = &cobra.Command{
	Use:   "nestfsctl",
	Short: "NestFS Control - Remote management client",
	Long: `nestfsctl is the command-line client for managing NestFS servers remotely.

Use this tool to manage drives, inspect the node tree, and check server
health through the NestFS REST API.

Use "nestfsctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Sync flags to cmdutil.Flags for subcommands.
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")

		// Saved preferences fill in whatever the flags left at default.
		if store, err := credentials.NewStore(); err == nil {
			prefs := store.GetPreferences()
			if prefs.DefaultOutput != "" && !cmd.Flags().Changed("output") {
				cmdutil.Flags.Output = prefs.DefaultOutput
			}
			if prefs.Color == "never" && !cmd.Flags().Changed("no-color") {
				cmdutil.Flags.NoColor = true
			}
		}
	},
}

// Execute runs the root command tree. main calls this once.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Server URL (overrides stored credential)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (overrides stored credential)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd, loginCmd, logoutCmd, statusCmd, ctxcmd.Cmd, drivecmd.Cmd, nodecmd.Cmd, completionCmd)

	// completionCmd replaces cobra's stock completion command.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
