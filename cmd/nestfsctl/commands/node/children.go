package node

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	"github.com/marmos91/nestfs/pkg/apiclient"
)

var childrenCmd = &cobra.Command{
	Use:   "children <id>",
	Short: "List the children of a directory node",
	Long: `List the direct children of a directory node.

Examples:
  # List children as table
  nestfsctl node children b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d

  # List as JSON
  nestfsctl node children b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runChildren,
}

// NodeList is a list of nodes for table rendering.
type NodeList []apiclient.Node

// Headers implements TableRenderer.
func (nl NodeList) Headers() []string {
	return []string{"ID", "KIND", "NAME", "SIZE", "MODIFIED"}
}

// Rows implements TableRenderer.
func (nl NodeList) Rows() [][]string {
	rows := make([][]string, 0, len(nl))
	for _, n := range nl {
		size := "-"
		if n.Kind == "file" {
			size = strconv.FormatInt(n.Size, 10)
		}
		rows = append(rows, []string{n.ID, n.Kind, n.Name, size, formatMTime(n.MTime)})
	}
	return rows
}

func runChildren(cmd *cobra.Command, args []string) error {
	id := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	children, err := client.ListNodeChildren(id)
	if err != nil {
		return fmt.Errorf("failed to list children: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, children, len(children) == 0, "No children.", NodeList(children))
}
