package context

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	"github.com/marmos91/nestfs/internal/cli/credentials"
)

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show current context",
	Long: `Show the active context and whether its session is still valid.

Examples:
  nestfsctl context current
  nestfsctl context current -o json`,
	RunE: runContextCurrent,
}

func runContextCurrent(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	name := store.GetCurrentContextName()
	if name == "" {
		return fmt.Errorf("no current context set\n\n" +
			"Login to a server first:\n" +
			"  nestfsctl login --server http://localhost:8080")
	}

	ctx, err := store.GetContext(name)
	if err != nil {
		return fmt.Errorf("failed to get context: %w", err)
	}

	info := newContextInfo(name, true, ctx)
	return cmdutil.PrintResource(os.Stdout, info, [][2]string{
		{"Context", info.Name},
		{"Server", info.ServerURL},
		{"User", info.Username},
		{"Logged in", cmdutil.BoolToYesNo(info.LoggedIn)},
	})
}
