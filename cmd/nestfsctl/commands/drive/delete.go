package drive

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a drive",
	Long: `Delete a drive from the NestFS server.

The drive is removed from the registry and unmounted from the tree.
The backing directory stays on disk. You will be prompted for
confirmation unless --force is specified.

Examples:
  # Delete drive with confirmation
  nestfsctl drive delete projects

  # Delete drive without confirmation
  nestfsctl drive delete projects --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("Drive", name, deleteForce, func() error {
		if err := client.DeleteDrive(name); err != nil {
			return fmt.Errorf("failed to delete drive: %w", err)
		}
		return nil
	})
}
