package node

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	"github.com/marmos91/nestfs/internal/cli/output"
)

var pathCmd = &cobra.Command{
	Use:   "path <id>",
	Short: "Resolve a node to its absolute path",
	Long: `Resolve a node identifier to its current absolute path on the volume.

Examples:
  # Resolve a node
  nestfsctl node path b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d`,
	Args: cobra.ExactArgs(1),
	RunE: runPath,
}

func runPath(cmd *cobra.Command, args []string) error {
	id := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	path, err := client.GetNodePath(id)
	if err != nil {
		return fmt.Errorf("failed to resolve node path: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, map[string]string{"id": id, "path": path})
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, map[string]string{"id": id, "path": path})
	default:
		fmt.Println(path)
	}

	return nil
}
