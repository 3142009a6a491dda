package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"risk-assessment/internal/auth"
	"risk-assessment/internal/models"
)

type contextKey string

const (
	ActorKey     contextKey = "actor"
	RequestIDKey contextKey = "request_id"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.JWTClaims, error)
}

// AuthMiddleware validates JWT tokens and puts the acting user into the context
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates the JWT token and adds the actor to the context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if errors.Is(err, auth.ErrExpiredToken) {
			respondWithError(w, http.StatusUnauthorized, "Token has expired")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), claims.Actor())))
	})
}

// WithActor stores the acting user in ctx
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor retrieves the acting user from the request context
func GetActor(r *http.Request) (models.Actor, bool) {
	actor, ok := r.Context().Value(ActorKey).(models.Actor)
	return actor, ok
}

// Helper function to respond with JSON error
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
