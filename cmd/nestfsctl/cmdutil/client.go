package cmdutil

import (
	"fmt"

	"github.com/marmos91/nestfs/internal/cli/credentials"
	"github.com/marmos91/nestfs/pkg/apiclient"
)

// GetAuthenticatedClient returns an API client configured from the current
// context. The --server and --token flags take precedence over stored
// credentials. An expired access token is refreshed transparently when a
// refresh token is available, unless --token pinned the token explicitly.
func GetAuthenticatedClient() (*apiclient.Client, error) {
	if Flags.ServerURL != "" && Flags.Token != "" {
		return apiclient.New(Flags.ServerURL).WithToken(Flags.Token), nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}

	ctx, err := store.GetCurrentContext()
	if err != nil {
		return nil, fmt.Errorf("not logged in. Run 'nestfsctl login' first")
	}

	url := firstNonEmpty(Flags.ServerURL, ctx.ServerURL)
	if url == "" {
		return nil, fmt.Errorf("no server URL configured. Run 'nestfsctl login --server <url>' first")
	}

	tok := firstNonEmpty(Flags.Token, ctx.AccessToken)
	if Flags.Token == "" && ctx.IsExpired() && ctx.HasRefreshToken() {
		tok, err = refreshSession(store, url, ctx.RefreshToken)
		if err != nil {
			return nil, err
		}
	}
	if tok == "" {
		return nil, fmt.Errorf("no access token. Run 'nestfsctl login' first")
	}

	return apiclient.New(url).WithToken(tok), nil
}

// refreshSession trades the refresh token for a new pair and persists it.
func refreshSession(store *credentials.Store, url, refreshToken string) (string, error) {
	fresh, err := apiclient.New(url).RefreshToken(refreshToken)
	if err != nil {
		return "", fmt.Errorf("session expired. Run 'nestfsctl login' to re-authenticate")
	}
	if err := store.UpdateTokens(fresh.AccessToken, fresh.RefreshToken, fresh.ExpiresAt); err != nil {
		return "", fmt.Errorf("failed to save refreshed tokens: %w", err)
	}
	return fresh.AccessToken, nil
}
