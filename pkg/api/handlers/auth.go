package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/marmos91/nestfs/pkg/api/auth"
	"github.com/marmos91/nestfs/pkg/api/middleware"
)

// Credentials is the administrative identity the API authenticates against.
// The password hash is a bcrypt hash produced at init time.
type Credentials struct {
	Username     string
	PasswordHash string
}

// AuthHandler handles authentication API endpoints.
//
// nestfs has a single administrative identity configured at init time; there
// is no user database behind the API.
type AuthHandler struct {
	admin      Credentials
	jwtService *auth.JWTService
}

// NewAuthHandler builds a handler bound to the configured admin identity.
func NewAuthHandler(admin Credentials, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		admin:      admin,
		jwtService: jwtService,
	}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response body for login and refresh.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	Username     string    `json:"username"`
}

// RefreshRequest is the request body for POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// MeResponse is the response body for GET /api/v1/auth/me.
type MeResponse struct {
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/v1/auth/login.
// Verifies the admin credentials and returns a JWT token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !readJSON(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	// A username mismatch and a wrong password answer identically so probing
	// cannot tell them apart.
	if req.Username != h.admin.Username {
		Unauthorized(w, "Invalid username or password")
		return
	}
	if err := auth.VerifyPassword(h.admin.PasswordHash, req.Password); err != nil {
		Unauthorized(w, "Invalid username or password")
		return
	}

	tokenPair, err := h.jwtService.GenerateTokenPair(req.Username)
	if err != nil {
		InternalServerError(w, "Failed to generate token")
		return
	}

	WriteJSONOK(w, loginResponse(tokenPair, req.Username))
}

// Refresh handles POST /api/v1/auth/refresh.
// A valid refresh token is exchanged for a fresh pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !readJSON(w, r, &req) {
		return
	}

	if req.RefreshToken == "" {
		BadRequest(w, "Refresh token is required")
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			Unauthorized(w, "Refresh token has expired")
			return
		}
		Unauthorized(w, "Invalid refresh token")
		return
	}

	// The admin credential may have been rotated since the token was issued
	if claims.Username != h.admin.Username {
		Unauthorized(w, "Invalid refresh token")
		return
	}

	tokenPair, err := h.jwtService.GenerateTokenPair(claims.Username)
	if err != nil {
		InternalServerError(w, "Failed to generate token")
		return
	}

	WriteJSONOK(w, loginResponse(tokenPair, claims.Username))
}

// Me handles GET /api/v1/auth/me.
// Returns the authenticated identity and token validity window.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	resp := MeResponse{Username: claims.Username}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}

	WriteJSONOK(w, resp)
}

// loginResponse builds a LoginResponse from a token pair.
func loginResponse(pair *auth.TokenPair, username string) LoginResponse {
	return LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		ExpiresAt:    pair.ExpiresAt,
		Username:     username,
	}
}
