package drive

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	"github.com/marmos91/nestfs/internal/cli/prompt"
	"github.com/marmos91/nestfs/pkg/apiclient"
)

var (
	editAccess       string
	editOwner        string
	editWriteList    string
	editReadList     string
	editShareAllowed string
	editRef          string
)

var editCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit a drive",
	Long: `Edit an existing drive on the NestFS server.

When run without flags, opens an interactive editor to modify drive
properties. When flags are provided, only the specified fields are
updated.

Examples:
  # Edit drive interactively
  nestfsctl drive edit projects

  # Make a drive public
  nestfsctl drive edit projects --access public

  # Replace the write list
  nestfsctl drive edit projects --writelist bob,carol

  # Clear the read list
  nestfsctl drive edit projects --readlist ""

  # Forbid re-sharing
  nestfsctl drive edit projects --share-allowed false`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editAccess, "access", "", "Access type (private|public)")
	editCmd.Flags().StringVar(&editOwner, "owner", "", "Owning user")
	editCmd.Flags().StringVar(&editWriteList, "writelist", "", "Comma-separated usernames with write access")
	editCmd.Flags().StringVar(&editReadList, "readlist", "", "Comma-separated usernames with read access")
	editCmd.Flags().StringVar(&editShareAllowed, "share-allowed", "", "Allow re-sharing (true|false)")
	editCmd.Flags().StringVar(&editRef, "ref", "", "External reference tag")
}

func runEdit(cmd *cobra.Command, args []string) error {
	name := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	hasFlags := cmd.Flags().Changed("access") || cmd.Flags().Changed("owner") ||
		cmd.Flags().Changed("writelist") || cmd.Flags().Changed("readlist") ||
		cmd.Flags().Changed("share-allowed") || cmd.Flags().Changed("ref")

	if !hasFlags {
		return runEditInteractive(client, name)
	}

	req := &apiclient.UpdateDriveRequest{}

	if cmd.Flags().Changed("access") {
		req.Access = &editAccess
	}
	if cmd.Flags().Changed("owner") {
		req.Owner = &editOwner
	}
	if cmd.Flags().Changed("writelist") {
		list := cmdutil.ParseCommaSeparatedList(editWriteList)
		if list == nil {
			list = []string{}
		}
		req.WriteList = &list
	}
	if cmd.Flags().Changed("readlist") {
		list := cmdutil.ParseCommaSeparatedList(editReadList)
		if list == nil {
			list = []string{}
		}
		req.ReadList = &list
	}
	if cmd.Flags().Changed("share-allowed") {
		shareAllowed := strings.EqualFold(editShareAllowed, "true")
		req.ShareAllowed = &shareAllowed
	}
	if cmd.Flags().Changed("ref") {
		req.Ref = &editRef
	}

	drive, err := client.UpdateDrive(name, req)
	if err != nil {
		return fmt.Errorf("failed to update drive: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, drive, fmt.Sprintf("Drive '%s' updated successfully", drive.Name))
}

func runEditInteractive(client *apiclient.Client, name string) error {
	current, err := client.GetDrive(name)
	if err != nil {
		return fmt.Errorf("failed to get drive: %w", err)
	}

	fmt.Printf("Editing drive: %s\n", current.Name)
	fmt.Println("Press Enter to keep current value, or enter a new value.")
	fmt.Println("Press Ctrl+C to abort.")
	fmt.Println()

	req := &apiclient.UpdateDriveRequest{}
	hasUpdate := false

	// Owner
	newOwner, err := prompt.Input("Owner", current.Owner)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if newOwner != current.Owner {
		req.Owner = &newOwner
		hasUpdate = true
	}

	// Access type
	fmt.Printf("Current access: %s\n", current.Access)
	newAccess, err := prompt.Select("Access type", accessOptions)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if newAccess != current.Access {
		req.Access = &newAccess
		hasUpdate = true
	}

	// Write list
	newWriters, err := prompt.Input("Write list (comma-separated)", strings.Join(current.WriteList, ","))
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	writeList := cmdutil.ParseCommaSeparatedList(newWriters)
	if !sameList(writeList, current.WriteList) {
		if writeList == nil {
			writeList = []string{}
		}
		req.WriteList = &writeList
		hasUpdate = true
	}

	// Read list
	newReaders, err := prompt.Input("Read list (comma-separated)", strings.Join(current.ReadList, ","))
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	readList := cmdutil.ParseCommaSeparatedList(newReaders)
	if !sameList(readList, current.ReadList) {
		if readList == nil {
			readList = []string{}
		}
		req.ReadList = &readList
		hasUpdate = true
	}

	// Re-sharing
	newShareAllowed, err := prompt.Confirm("Allow grantees to re-share", current.ShareAllowed)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if newShareAllowed != current.ShareAllowed {
		req.ShareAllowed = &newShareAllowed
		hasUpdate = true
	}

	if !hasUpdate {
		fmt.Println("No changes made.")
		return nil
	}

	drive, err := client.UpdateDrive(name, req)
	if err != nil {
		return fmt.Errorf("failed to update drive: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, drive, fmt.Sprintf("Drive '%s' updated successfully", drive.Name))
}

func sameList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
