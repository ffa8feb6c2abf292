package drive

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	"github.com/marmos91/nestfs/pkg/apiclient"
)

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show drive details",
	Long: `Display the full configuration of a drive.

Examples:
  # Show drive details
  nestfsctl drive get projects

  # Show as JSON
  nestfsctl drive get projects -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	name := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	drive, err := client.GetDrive(name)
	if err != nil {
		return fmt.Errorf("failed to get drive: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, drive, drivePairs(drive))
}

// drivePairs builds the key-value rows for the detail view.
func drivePairs(d *apiclient.Drive) [][2]string {
	return [][2]string{
		{"ID", d.ID},
		{"Name", d.Name},
		{"Access", d.Access},
		{"Owner", d.Owner},
		{"Write list", cmdutil.EmptyOr(strings.Join(d.WriteList, ", "), "-")},
		{"Read list", cmdutil.EmptyOr(strings.Join(d.ReadList, ", "), "-")},
		{"Sharable", cmdutil.BoolToYesNo(d.ShareAllowed)},
		{"Ref", cmdutil.EmptyOr(d.Ref, "-")},
	}
}
