package node

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	"github.com/marmos91/nestfs/pkg/apiclient"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show node details",
	Long: `Display the metadata of a node: kind, name, modification time,
and for files the size, content hash, and detected media type.

Examples:
  # Show node details
  nestfsctl node get b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d

  # Show as JSON
  nestfsctl node get b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	id := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	node, err := client.GetNode(id)
	if err != nil {
		return fmt.Errorf("failed to get node: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, node, nodePairs(node))
}

func nodePairs(n *apiclient.Node) [][2]string {
	pairs := [][2]string{
		{"ID", n.ID},
		{"Kind", n.Kind},
		{"Name", n.Name},
		{"Modified", formatMTime(n.MTime)},
	}

	if n.Kind == "file" {
		pairs = append(pairs,
			[2]string{"Size", strconv.FormatInt(n.Size, 10)},
			[2]string{"Hash", cmdutil.EmptyOr(n.Hash, "-")},
			[2]string{"Type", cmdutil.EmptyOr(n.Magic, "-")},
		)
	} else {
		pairs = append(pairs, [2]string{"Children", strconv.Itoa(n.Children)})
	}

	pairs = append(pairs,
		[2]string{"Parent", cmdutil.EmptyOr(n.Parent, "-")},
		[2]string{"Drive", cmdutil.EmptyOr(n.Drive, "-")},
	)

	return pairs
}

// formatMTime renders the epoch-milliseconds modification time.
func formatMTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
