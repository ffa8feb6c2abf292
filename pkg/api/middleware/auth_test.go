package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/api/auth"
)

func newJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret: "unit-test-secret-0123456789abcdef0123456789",
		Issuer: "nestfs-test",
	})
	if err != nil {
		t.Fatalf("NewJWTService() error: %v", err)
	}
	return svc
}

// claimsRecorder is a terminal handler that captures what the middleware
// left in the request context.
type claimsRecorder struct {
	called bool
	claims *auth.Claims
	user   string
}

func (c *claimsRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.called = true
	c.claims = GetClaimsFromContext(r.Context())
	if rc := logger.FromContext(r.Context()); rc != nil {
		c.user = rc.User
	}
	w.WriteHeader(http.StatusOK)
}

func doRequest(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drives", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"no header", "", "", false},
		{"standard", "Bearer tok123", "tok123", true},
		{"lowercase scheme", "bearer tok123", "tok123", true},
		{"uppercase scheme", "BEARER tok123", "tok123", true},
		{"scheme only", "Bearer", "", false},
		{"basic auth", "Basic dXNlcjpwdw==", "", false},
		{"missing separator", "Bearertok123", "", false},
		{"token keeps inner spaces", "Bearer a b c", "a b c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			token, ok := bearerToken(req)
			if ok != tt.ok || token != tt.token {
				t.Errorf("bearerToken(%q) = (%q, %v), want (%q, %v)", tt.header, token, ok, tt.token, tt.ok)
			}
		})
	}
}

func TestGetClaimsFromContext(t *testing.T) {
	if got := GetClaimsFromContext(context.Background()); got != nil {
		t.Errorf("expected nil claims on bare context, got %+v", got)
	}

	want := &auth.Claims{Username: "admin", TokenType: auth.TokenTypeAccess}
	ctx := context.WithValue(context.Background(), claimsKey{}, want)
	if got := GetClaimsFromContext(ctx); got != want {
		t.Errorf("expected stored claims back, got %+v", got)
	}
}

func TestJWTAuth(t *testing.T) {
	svc := newJWTService(t)
	tokens, err := svc.GenerateTokenPair("admin")
	if err != nil {
		t.Fatalf("GenerateTokenPair() error: %v", err)
	}

	t.Run("missing header", func(t *testing.T) {
		rec := &claimsRecorder{}
		rr := doRequest(JWTAuth(svc)(rec), "")

		if rec.called {
			t.Error("handler must not run without credentials")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Errorf("expected problem+json response, got %q", ct)
		}
		if !strings.Contains(rr.Body.String(), "Authorization header required") {
			t.Errorf("expected detail in body, got %q", rr.Body.String())
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := &claimsRecorder{}
		rr := doRequest(JWTAuth(svc)(rec), "Bearer not-a-jwt")

		if rec.called || rr.Code != http.StatusUnauthorized {
			t.Errorf("expected rejection, called=%v code=%d", rec.called, rr.Code)
		}
	})

	t.Run("refresh token rejected on API routes", func(t *testing.T) {
		rec := &claimsRecorder{}
		rr := doRequest(JWTAuth(svc)(rec), "Bearer "+tokens.RefreshToken)

		if rec.called || rr.Code != http.StatusUnauthorized {
			t.Errorf("expected rejection, called=%v code=%d", rec.called, rr.Code)
		}
	})

	t.Run("access token admitted", func(t *testing.T) {
		rec := &claimsRecorder{}
		rr := doRequest(JWTAuth(svc)(rec), "Bearer "+tokens.AccessToken)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if rec.claims == nil || rec.claims.Username != "admin" {
			t.Errorf("expected admin claims in context, got %+v", rec.claims)
		}
		if rec.user != "admin" {
			t.Errorf("expected user stamped on log fields, got %q", rec.user)
		}
	})
}

func TestOptionalJWTAuth(t *testing.T) {
	svc := newJWTService(t)
	tokens, err := svc.GenerateTokenPair("admin")
	if err != nil {
		t.Fatalf("GenerateTokenPair() error: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantUser   string
	}{
		{"anonymous passes through", "", ""},
		{"invalid token passes through", "Bearer junk", ""},
		{"valid token sets claims", "Bearer " + tokens.AccessToken, "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &claimsRecorder{}
			rr := doRequest(OptionalJWTAuth(svc)(rec), tt.authHeader)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rr.Code)
			}
			if tt.wantUser == "" {
				if rec.claims != nil {
					t.Errorf("expected no claims, got %+v", rec.claims)
				}
				return
			}
			if rec.claims == nil || rec.claims.Username != tt.wantUser {
				t.Errorf("expected claims for %q, got %+v", tt.wantUser, rec.claims)
			}
		})
	}
}
