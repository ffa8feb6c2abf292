package node

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
)

var permissionsUser string

var permissionsCmd = &cobra.Command{
	Use:   "permissions <id>",
	Short: "Evaluate permissions on a node",
	Long: `Evaluate the permission matrix of the node's drive for a user.

The result reflects the drive's access type, owner, and read/write
lists as the server currently sees them.

Examples:
  # What may alice do here?
  nestfsctl node permissions b3bb72a6-3c2c-42c5-86c4-7f4f8f0f3e5d --user alice`,
	Args: cobra.ExactArgs(1),
	RunE: runPermissions,
}

func init() {
	permissionsCmd.Flags().StringVar(&permissionsUser, "user", "", "Username to evaluate (required)")
	_ = permissionsCmd.MarkFlagRequired("user")
}

func runPermissions(cmd *cobra.Command, args []string) error {
	id := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	perms, err := client.GetNodePermissions(id, permissionsUser)
	if err != nil {
		return fmt.Errorf("failed to evaluate permissions: %w", err)
	}

	pairs := [][2]string{
		{"User", perms.User},
		{"Read", cmdutil.BoolToYesNo(perms.Read)},
		{"Write", cmdutil.BoolToYesNo(perms.Write)},
		{"Share", cmdutil.BoolToYesNo(perms.Share)},
		{"Owner", cmdutil.BoolToYesNo(perms.Owner)},
	}

	return cmdutil.PrintResource(os.Stdout, perms, pairs)
}
