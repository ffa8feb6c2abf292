package main

import (
	"fmt"
	"os"

	"github.com/marmos91/nestfs/cmd/nestfsctl/commands"
)

// Overridden through -ldflags at release build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version, commands.Commit, commands.Date = version, commit, date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
