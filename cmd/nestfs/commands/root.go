// Package commands implements the CLI commands for nestfs server management.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfs/commands/config"
)

// Build metadata, overridden through ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// cfgFile is the --config persistent flag.
var cfgFile string

// rootCmd is the entry point for all nestfs subcommands.
var rootCmd = &cobra.Command{
	Use:   "nestfs",
	Short: "NestFS - Identity-preserving volume index",
	Long: `NestFS indexes a storage volume into drives with stable identities.

Every file and directory on the volume gets a persistent identity and,
for regular files, a verified content digest, stored in filesystem
extended attributes. An in-memory tree mirrors the volume and serves
lookups, permission checks, and probes over a REST API.

Use "nestfs [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command tree. main calls this once.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/nestfs/config.yaml)")

	rootCmd.AddCommand(versionCmd, initCmd, startCmd, stopCmd, logsCmd, config.Cmd, completionCmd)

	// completionCmd replaces cobra's stock completion command.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
