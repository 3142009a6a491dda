package vault_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk-assessment/internal/config"
	"risk-assessment/internal/testutil"
	"risk-assessment/internal/vault"
)

func TestClient_ReadWriteSecret(t *testing.T) {
	vc := testutil.SetupVault(t)
	ctx := context.Background()

	client, err := vault.NewClient(&config.VaultConfig{Address: vc.Addr, Token: vc.Token})
	require.NoError(t, err)
	require.NoError(t, client.HealthCheck(ctx))

	path := "secret/data/risk-assessment/jwt"
	require.NoError(t, client.WriteSecret(ctx, path, map[string]string{"private_key": "pem-data"}))

	value, err := client.ReadSecret(ctx, path, "private_key")
	require.NoError(t, err)
	assert.Equal(t, "pem-data", value)

	_, err = client.ReadSecret(ctx, path, "missing")
	assert.ErrorIs(t, err, vault.ErrSecretNotFound)

	_, err = client.ReadSecret(ctx, "secret/data/does-not-exist", "private_key")
	assert.ErrorIs(t, err, vault.ErrSecretNotFound)
}
