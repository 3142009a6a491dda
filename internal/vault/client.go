package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/vault/api"

	"risk-assessment/internal/config"
)

// ErrSecretNotFound is returned when a path or key holds no value
var ErrSecretNotFound = errors.New("secret not found")

// Client wraps the HashiCorp Vault API for KV v2 secrets
type Client struct {
	client *api.Client
}

// NewClient creates a new Vault client
func NewClient(cfg *config.VaultConfig) (*Client, error) {
	vc := api.DefaultConfig()
	vc.Address = cfg.Address

	client, err := api.NewClient(vc)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{client: client}, nil
}

// ReadSecret returns a string value of a KV v2 secret.
// path is the full API path, e.g. secret/data/risk-assessment/jwt.
func (c *Client) ReadSecret(ctx context.Context, path, key string) (string, error) {
	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%s: %w", path, ErrSecretNotFound)
	}

	// KV v2 nests the payload under "data"
	data := secret.Data
	if nested, ok := data["data"].(map[string]any); ok {
		data = nested
	}

	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s#%s: %w", path, key, ErrSecretNotFound)
	}

	return value, nil
}

// WriteSecret stores values as a new version of a KV v2 secret
func (c *Client) WriteSecret(ctx context.Context, path string, values map[string]string) error {
	payload := make(map[string]any, len(values))
	for k, v := range values {
		payload[k] = v
	}

	_, err := c.client.Logical().WriteWithContext(ctx, path, map[string]any{"data": payload})
	if err != nil {
		return fmt.Errorf("failed to write secret %s: %w", path, err)
	}
	return nil
}

// HealthCheck checks that Vault is initialized and unsealed
func (c *Client) HealthCheck(ctx context.Context) error {
	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if !health.Initialized {
		return fmt.Errorf("vault is not initialized")
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}
