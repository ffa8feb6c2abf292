package node

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
)

var probeCmd = &cobra.Command{
	Use:   "probe <id>",
	Short: "Re-scan a node's subtree from disk",
	Long: `Re-scan the node's subtree from disk.

The server walks the directory under the node, reconciles the tree
with what it finds, and queues a digest for every file still missing
one. Use this after changing files behind the server's back with the
watcher disabled.

Examples:
  # Re-scan a drive root
  nestfsctl node probe b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	id := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	result, err := client.ProbeNode(id)
	if err != nil {
		return fmt.Errorf("failed to probe node: %w", err)
	}

	msg := fmt.Sprintf("Probe complete: %d nodes scanned, %d digests queued", result.Nodes, result.Queued)
	return cmdutil.PrintResourceWithSuccess(os.Stdout, result, msg)
}
