package apiclient

import "time"

// LoginRequest carries the credentials for a login call.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token for a token renewal call.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is the token pair minted by login and refresh.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	ExpiresAt    time.Time `json:"expires_at"`
	Username     string    `json:"username"`
}

// Identity describes the account behind a token.
type Identity struct {
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(username, password string) (*TokenResponse, error) {
	return createResource[TokenResponse](c, "/api/v1/auth/login", LoginRequest{
		Username: username,
		Password: password,
	})
}

// RefreshToken exchanges a refresh token for a fresh token pair.
func (c *Client) RefreshToken(refreshToken string) (*TokenResponse, error) {
	return createResource[TokenResponse](c, "/api/v1/auth/refresh", RefreshRequest{
		RefreshToken: refreshToken,
	})
}

// Me returns the identity behind the client's current token.
func (c *Client) Me() (*Identity, error) {
	return getResource[Identity](c, "/api/v1/auth/me")
}
