package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Parse and validate the configuration, then print a short summary.

Structural errors fail the command; risky but legal settings come back
as warnings.

Examples:
  # Validate the default config
  nestfs config validate

  # Validate a specific file
  nestfs config validate --config /etc/nestfs/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := configPathFlag(cmd)

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	fmt.Printf("Configuration file: %s\n", configPath)
	fmt.Println("Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Volume root:     %s\n", cfg.Volume.Root)
	fmt.Printf("  Registry type:   %s\n", cfg.Registry.Type)
	fmt.Printf("  API port:        %d\n", cfg.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}

// configWarnings collects non-fatal problems worth surfacing after a
// successful parse.
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if !cfg.API.HasJWTSecret() {
		warnings = append(warnings, "JWT secret not configured - the API will run without authentication")
	}
	if cfg.Admin.PasswordHash == "" {
		warnings = append(warnings, "Admin password hash not set - run 'nestfs init' to set it")
	}
	if cfg.Registry.Type == "memory" {
		warnings = append(warnings, "Registry type is 'memory' - drives will be lost on restart")
	}
	if cfg.Registry.Type == "badger" && cfg.Registry.Path == "" {
		warnings = append(warnings, "Registry type is 'badger' but no path is configured")
	}
	return warnings
}
