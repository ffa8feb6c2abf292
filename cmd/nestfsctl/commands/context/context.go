// Package context implements context management subcommands for nestfsctl.
package context

import "github.com/spf13/cobra"

// Cmd is the context subcommand.
var Cmd = &cobra.Command{
	Use:   "context",
	Short: "Manage server contexts",
	Long: `Manage connection contexts for multiple NestFS servers.

A context stores a server URL plus the session tokens for it, so switching
between servers works the way kubectl contexts do.`,
}

func init() {
	Cmd.AddCommand(listCmd, useCmd, currentCmd, deleteCmd)
}
