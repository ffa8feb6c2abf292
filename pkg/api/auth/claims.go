// Package auth provides JWT authentication for the nestfs control API.
package auth

import "github.com/golang-jwt/jwt/v5"

// TokenType distinguishes access tokens from refresh tokens. The type is
// itself a claim, so a refresh token can never pass access validation.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the JWT claims issued by the control API.
//
// The API authenticates a single administrative identity, so the claims
// carry nothing beyond the username and the token type. The username in
// the claims is also the identity handed to the permission evaluator when
// a request does not name one explicitly.
type Claims struct {
	jwt.RegisteredClaims

	Username  string    `json:"username"`
	TokenType TokenType `json:"token_type"`
}

// IsAccessToken reports whether the claims came from an access token.
func (c *Claims) IsAccessToken() bool {
	return c.TokenType == TokenTypeAccess
}

// IsRefreshToken reports whether the claims came from a refresh token.
func (c *Claims) IsRefreshToken() bool {
	return c.TokenType == TokenTypeRefresh
}
