package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"risk-assessment/internal/auth"
	"risk-assessment/internal/config"
)

// AuthHelper issues tokens signed by an ephemeral key
type AuthHelper struct {
	Service *auth.Service
}

// NewAuthHelper creates a helper with a fresh signing key
func NewAuthHelper(t *testing.T) *AuthHelper {
	t.Helper()
	svc, err := auth.NewService(&config.JWTConfig{Expiration: time.Hour})
	if err != nil {
		t.Fatalf("Failed to create auth service: %v", err)
	}
	return &AuthHelper{Service: svc}
}

// Token issues a token for the given identity
func (h *AuthHelper) Token(t *testing.T, name, email string) string {
	t.Helper()
	token, err := h.Service.GenerateToken(name, email)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}

// NewAuthenticatedRequest builds a request carrying a bearer token
func (h *AuthHelper) NewAuthenticatedRequest(t *testing.T, method, path string, body []byte, name, email string) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+h.Token(t, name, email))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}
