package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"risk-assessment/internal/config"
	"risk-assessment/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// JWTClaims carries the identity that is recorded as the actor of every change
type JWTClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Actor returns the identity of the claims with the email lower-cased
func (c *JWTClaims) Actor() models.Actor {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = "Unknown User"
	}
	return models.Actor{
		Name:  name,
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
	}
}

// Service issues and validates ES256 tokens
type Service struct {
	privateKey    *ecdsa.PrivateKey
	publicKey     *ecdsa.PublicKey
	jwtExpiration time.Duration
}

// NewService creates a service from a PEM encoded EC private key in cfg.Secret.
// Without a parsable key an ephemeral one is generated.
func NewService(cfg *config.JWTConfig) (*Service, error) {
	privateKey, err := loadOrGenerateKey(cfg.Secret)
	if err != nil {
		return nil, err
	}
	return &Service{
		privateKey:    privateKey,
		publicKey:     &privateKey.PublicKey,
		jwtExpiration: cfg.Expiration,
	}, nil
}

// GenerateToken issues an access token for an identity
func (s *Service) GenerateToken(name, email string) (string, error) {
	jti, err := GenerateRandomToken(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate JTI: %w", err)
	}

	now := time.Now()
	claims := JWTClaims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tokenString, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Email) == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GenerateRandomToken returns length random bytes, base64url encoded
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// EncodePrivateKey renders key as a PEM "EC PRIVATE KEY" block
func EncodePrivateKey(key *ecdsa.PrivateKey) (string, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal private key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})), nil
}

func loadOrGenerateKey(secret string) (*ecdsa.PrivateKey, error) {
	// .env files carry the PEM block on one line with escaped newlines
	secret = strings.ReplaceAll(secret, `\n`, "\n")
	if block, _ := pem.Decode([]byte(secret)); block != nil {
		if privateKey, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
			return privateKey, nil
		}
	}

	if secret != "" {
		slog.Warn("JWT secret is not a PEM encoded EC key, using an ephemeral key")
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}
	return privateKey, nil
}
