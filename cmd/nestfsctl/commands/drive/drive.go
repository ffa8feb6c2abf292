// Package drive implements drive management commands for nestfsctl.
package drive

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for drive management.
var Cmd = &cobra.Command{
	Use:   "drive",
	Short: "Drive management",
	Long: `Manage drives on the NestFS server.

Drive commands allow you to create, list, edit, and delete drives.
A drive is a top-level directory of the volume with its own owner,
access type, and permission lists.

Examples:
  # List all drives
  nestfsctl drive list

  # Create a new drive
  nestfsctl drive create --name projects --owner alice

  # Create a public drive with a write list
  nestfsctl drive create --name shared --owner alice --access public --writelist bob,carol

  # Edit a drive interactively
  nestfsctl drive edit projects

  # Delete a drive
  nestfsctl drive delete projects`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(editCmd)
	Cmd.AddCommand(deleteCmd)
}
