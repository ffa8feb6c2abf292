package drive

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	"github.com/marmos91/nestfs/pkg/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all drives",
	Long: `List all drives on the NestFS server.

Examples:
  # List drives as table
  nestfsctl drive list

  # List as JSON
  nestfsctl drive list -o json

  # List as YAML
  nestfsctl drive list -o yaml`,
	RunE: runList,
}

// DriveList is a list of drives for table rendering.
type DriveList []apiclient.Drive

// Headers implements TableRenderer.
func (dl DriveList) Headers() []string {
	return []string{"NAME", "ACCESS", "OWNER", "WRITERS", "READERS", "SHARABLE"}
}

// Rows implements TableRenderer.
func (dl DriveList) Rows() [][]string {
	rows := make([][]string, 0, len(dl))
	for _, d := range dl {
		rows = append(rows, []string{
			d.Name,
			d.Access,
			d.Owner,
			cmdutil.EmptyOr(strings.Join(d.WriteList, ", "), "-"),
			cmdutil.EmptyOr(strings.Join(d.ReadList, ", "), "-"),
			cmdutil.BoolToYesNo(d.ShareAllowed),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	drives, err := client.ListDrives()
	if err != nil {
		return fmt.Errorf("failed to list drives: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, drives, len(drives) == 0, "No drives found.", DriveList(drives))
}
