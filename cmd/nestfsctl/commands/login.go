package commands

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/marmos91/nestfs/cmd/nestfsctl/cmdutil"
	"github.com/marmos91/nestfs/internal/cli/credentials"
	"github.com/marmos91/nestfs/internal/cli/prompt"
	"github.com/marmos91/nestfs/pkg/apiclient"
)

var (
	loginServer   string
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with a NestFS server",
	Long: `Log in to a NestFS server and store the session locally.

The first login needs --server; later logins reuse the stored URL. The
username and password are prompted for when not passed as flags.

Examples:
  # First login to a server
  nestfsctl login --server http://localhost:8080 --username admin

  # Non-interactive (the password lands in your shell history)
  nestfsctl login --server http://localhost:8080 -u admin -p secret

  # Refresh the session against the stored server
  nestfsctl login`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "Server URL (required on first login)")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when omitted)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	serverURL, err := resolveLoginServer(store)
	if err != nil {
		return err
	}

	username, password, err := loginCredentials()
	if err != nil {
		return cmdutil.HandleAbort(err)
	}

	fmt.Printf("Logging in to %s as %s...\n", serverURL, username)
	tokens, err := apiclient.New(serverURL).Login(username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	contextName, err := saveSession(store, serverURL, username, tokens)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in successfully as %s\n", username)
	fmt.Printf("Context: %s\n", contextName)
	fmt.Printf("Credentials saved to: %s\n", store.ConfigPath())

	return nil
}

// resolveLoginServer picks the server URL from the --server flag or the
// saved context, defaulting the scheme to http when omitted.
func resolveLoginServer(store *credentials.Store) (string, error) {
	raw := loginServer
	if raw == "" {
		ctx, err := store.GetCurrentContext()
		if err != nil || ctx == nil || ctx.ServerURL == "" {
			return "", fmt.Errorf("no server URL specified and no saved context found\n\n" +
				"Specify server URL:\n" +
				"  nestfsctl login --server http://localhost:8080")
		}
		raw = ctx.ServerURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
		raw = parsed.String()
	}
	return raw, nil
}

// loginCredentials returns the username and password, prompting for
// whichever the flags left blank.
func loginCredentials() (string, string, error) {
	username := loginUsername
	if username == "" {
		var err error
		username, err = prompt.InputRequired("Username")
		if err != nil {
			return "", "", err
		}
	}

	password := loginPassword
	if password == "" {
		var err error
		password, err = prompt.Password("Password")
		if err != nil {
			return "", "", err
		}
	}
	return username, password, nil
}

// saveSession stores the token pair under the current context, creating a
// context named after the server on first login.
func saveSession(store *credentials.Store, serverURL, username string, tokens *apiclient.TokenResponse) (string, error) {
	name := store.GetCurrentContextName()
	if name == "" {
		name = credentials.GenerateContextName(serverURL)
	}

	ctx := &credentials.Context{
		ServerURL:    serverURL,
		Username:     username,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}
	if err := store.SetContext(name, ctx); err != nil {
		return "", fmt.Errorf("failed to save credentials: %w", err)
	}
	if err := store.UseContext(name); err != nil {
		return "", fmt.Errorf("failed to set current context: %w", err)
	}
	return name, nil
}
