package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/internal/cli/output"
	"github.com/marmos91/nestfs/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Print the effective configuration, after defaults and environment
overrides have been applied.

Examples:
  # YAML (default)
  nestfs config show

  # JSON
  nestfs config show --output json

  # A specific file
  nestfs config show --config /etc/nestfs/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(configPathFlag(cmd))
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.PrintJSON(os.Stdout, cfg)
	}
	return output.PrintYAML(os.Stdout, cfg)
}
