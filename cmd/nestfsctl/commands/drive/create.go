package drive

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	"github.com/marmos91/nestfs/internal/cli/prompt"
	"github.com/marmos91/nestfs/pkg/apiclient"
)

var (
	createName         string
	createAccess       string
	createOwner        string
	createWriteList    string
	createReadList     string
	createShareAllowed bool
	createRef          string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new drive",
	Long: `Create a new drive on the NestFS server.

The server creates the backing directory under the volume root and
mounts the drive into the tree.

Examples:
  # Create a private drive
  nestfsctl drive create --name projects --owner alice

  # Create a public drive with explicit lists
  nestfsctl drive create --name shared --owner alice --access public --writelist bob --readlist carol,dave

  # Create a drive that grantees may re-share
  nestfsctl drive create --name media --owner alice --share-allowed

  # Create interactively
  nestfsctl drive create`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "Drive name (required unless interactive)")
	createCmd.Flags().StringVar(&createAccess, "access", "private", "Access type (private|public)")
	createCmd.Flags().StringVar(&createOwner, "owner", "", "Owning user")
	createCmd.Flags().StringVar(&createWriteList, "writelist", "", "Comma-separated usernames with write access")
	createCmd.Flags().StringVar(&createReadList, "readlist", "", "Comma-separated usernames with read access")
	createCmd.Flags().BoolVar(&createShareAllowed, "share-allowed", false, "Allow grantees to re-share the drive")
	createCmd.Flags().StringVar(&createRef, "ref", "", "External reference tag")
}

var accessOptions = []prompt.SelectOption{
	{Label: "private", Value: "private", Description: "Owner only; lists grant nothing"},
	{Label: "public", Value: "public", Description: "Read and write lists are honored"},
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	interactive := createName == ""

	name := createName
	if name == "" {
		name, err = prompt.InputRequired("Drive name")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	owner := createOwner
	if owner == "" {
		owner, err = prompt.InputRequired("Owner")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	access := createAccess
	writeList := cmdutil.ParseCommaSeparatedList(createWriteList)
	readList := cmdutil.ParseCommaSeparatedList(createReadList)
	shareAllowed := createShareAllowed

	if interactive {
		if !cmd.Flags().Changed("access") {
			access, err = prompt.Select("Access type", accessOptions)
			if err != nil {
				return cmdutil.HandleAbort(err)
			}
		}

		if access == "public" && !cmd.Flags().Changed("writelist") {
			writers, err := prompt.InputOptional("Write list (comma-separated)")
			if err != nil {
				return cmdutil.HandleAbort(err)
			}
			writeList = cmdutil.ParseCommaSeparatedList(writers)
		}

		if access == "public" && !cmd.Flags().Changed("readlist") {
			readers, err := prompt.InputOptional("Read list (comma-separated)")
			if err != nil {
				return cmdutil.HandleAbort(err)
			}
			readList = cmdutil.ParseCommaSeparatedList(readers)
		}

		if !cmd.Flags().Changed("share-allowed") {
			shareAllowed, err = prompt.Confirm("Allow grantees to re-share", false)
			if err != nil {
				return cmdutil.HandleAbort(err)
			}
		}
	}

	req := &apiclient.CreateDriveRequest{
		Name:         name,
		Access:       access,
		Owner:        owner,
		WriteList:    writeList,
		ReadList:     readList,
		ShareAllowed: shareAllowed,
		Ref:          createRef,
	}

	drive, err := client.CreateDrive(req)
	if err != nil {
		return fmt.Errorf("failed to create drive: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, drive, fmt.Sprintf("Drive '%s' created successfully", drive.Name))
}
