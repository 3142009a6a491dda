package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"risk-assessment/internal/config"
)

func newTestService(t *testing.T, expiration time.Duration) *Service {
	t.Helper()
	svc, err := NewService(&config.JWTConfig{Secret: "test-secret", Expiration: expiration})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(t, time.Hour)

	token, err := svc.GenerateToken("Dana Scully", "Dana@Example.org")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if token == "" {
		t.Fatal("Token should not be empty")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}

	actor := claims.Actor()
	if actor.Name != "Dana Scully" {
		t.Errorf("Expected name Dana Scully, got %s", actor.Name)
	}
	if actor.Email != "dana@example.org" {
		t.Errorf("Expected lower-cased email, got %s", actor.Email)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService(t, -time.Minute)

	token, err := svc.GenerateToken("Dana", "dana@example.org")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateToken_ForeignKey(t *testing.T) {
	issuer := newTestService(t, time.Hour)
	verifier := newTestService(t, time.Hour)

	token, err := issuer.GenerateToken("Dana", "dana@example.org")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("Token signed by another key should be rejected")
	}
}

func TestValidateToken_WrongAlgorithm(t *testing.T) {
	svc := newTestService(t, time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{Name: "x", Email: "x@example.org"})
	signed, err := token.SignedString([]byte("shared"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	if _, err := svc.ValidateToken(signed); err == nil {
		t.Error("HS256 token should be rejected")
	}
}

func TestValidateToken_MissingEmail(t *testing.T) {
	svc := newTestService(t, time.Hour)

	token, err := svc.GenerateToken("Nobody", "")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestNewService_FromPEM(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	pemKey, err := EncodePrivateKey(key)
	if err != nil {
		t.Fatalf("Failed to encode key: %v", err)
	}

	a, err := NewService(&config.JWTConfig{Secret: pemKey, Expiration: time.Hour})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	b, err := NewService(&config.JWTConfig{Secret: pemKey, Expiration: time.Hour})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	token, err := a.GenerateToken("Dana", "dana@example.org")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if _, err := b.ValidateToken(token); err != nil {
		t.Errorf("Services sharing a key should accept each other's tokens: %v", err)
	}
}

func TestActor_DefaultName(t *testing.T) {
	c := &JWTClaims{Email: " SD@Site.org "}
	actor := c.Actor()
	if actor.Name != "Unknown User" {
		t.Errorf("Expected fallback name, got %q", actor.Name)
	}
	if actor.Email != "sd@site.org" {
		t.Errorf("Expected normalized email, got %q", actor.Email)
	}
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(16)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	b, _ := GenerateRandomToken(16)
	if a == b {
		t.Error("Random tokens should differ")
	}
}
