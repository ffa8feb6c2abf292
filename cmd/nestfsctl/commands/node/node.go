// Package node implements tree inspection commands for nestfsctl.
package node

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for node inspection.
var Cmd = &cobra.Command{
	Use:   "node",
	Short: "Node inspection",
	Long: `Inspect nodes of the server's in-memory tree.

Every file and directory on the volume has a stable node identifier.
Node commands resolve identifiers to metadata, paths, children, and
evaluated permissions, and can trigger a subtree probe.

Examples:
  # Show a node
  nestfsctl node get b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d

  # Resolve its absolute path
  nestfsctl node path b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d

  # List its children
  nestfsctl node children b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d

  # Evaluate permissions for a user
  nestfsctl node permissions b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d --user alice

  # Re-probe the subtree
  nestfsctl node probe b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d`,
}

func init() {
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(pathCmd)
	Cmd.AddCommand(childrenCmd)
	Cmd.AddCommand(permissionsCmd)
	Cmd.AddCommand(probeCmd)
}
