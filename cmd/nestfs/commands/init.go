package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/internal/cli/prompt"
	"github.com/marmos91/nestfs/pkg/api"
	"github.com/marmos91/nestfs/pkg/api/auth"
	"github.com/marmos91/nestfs/pkg/config"
)

var (
	initForce         bool
	initAdminPassword string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file",
	Long: `Initialize a NestFS configuration file and set the admin credential.

By default, the configuration file is created at $XDG_CONFIG_HOME/nestfs/config.yaml.
Use --config to specify a custom path.

The command prompts for an admin password and stores its bcrypt hash in the
configuration. Use --admin-password for unattended setups.

Examples:
  # Initialize with default location
  nestfs init

  # Initialize with custom path
  nestfs init --config /etc/nestfs/config.yaml

  # Force overwrite existing config
  nestfs init --force

  # Unattended setup
  nestfs init --admin-password "$NESTFS_ADMIN_PASSWORD"`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().StringVar(&initAdminPassword, "admin-password", "", "Admin password (prompted when omitted)")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		// Use custom path
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		// Use default path
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)

	if err := setAdminCredential(configPath); err != nil {
		return err
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: nestfs start")
	fmt.Printf("  3. Or specify custom config: nestfs start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random JWT secret has been generated for development use.")
	fmt.Println("  For production, generate a secure secret and use an environment variable:")
	fmt.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", api.EnvAPISecret)

	return nil
}

// setAdminCredential prompts for (or takes from the flag) the admin password
// and writes its bcrypt hash back into the freshly created config file.
func setAdminCredential(configPath string) error {
	password := initAdminPassword
	if password == "" {
		var err error
		password, err = prompt.PasswordWithConfirmation("Admin password", "Confirm admin password", 8)
		if err != nil {
			if prompt.IsAborted(err) {
				fmt.Println("\nSkipped admin credential setup. The API will reject logins")
				fmt.Println("until admin.password_hash is set in the configuration.")
				return nil
			}
			return err
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	cfg.Admin.PasswordHash = hash

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save admin credential: %w", err)
	}

	fmt.Printf("Admin credential set for user '%s'\n", cfg.Admin.Username)
	return nil
}
