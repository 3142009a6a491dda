package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"risk-assessment/internal/auth"
	"risk-assessment/internal/config"
	"risk-assessment/internal/vault"
)

func main() {
	out := flag.String("out", "jwt-private-key.pem", "file to write the PEM key to, empty to skip")
	toVault := flag.Bool("vault", false, "store the key in Vault (VAULT_ADDR, VAULT_TOKEN, VAULT_JWT_SECRET_PATH)")
	flag.Parse()

	// Generate ECDSA P-256 key pair
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
		os.Exit(1)
	}

	privateKeyPEM, err := auth.EncodePrivateKey(privateKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode private key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Generated ECDSA P-256 key pair for JWT signing.")
	fmt.Println("\nAdd this to your .env file as JWT_SECRET:")
	fmt.Println("----------------------------------------")
	fmt.Printf("JWT_SECRET=%s\n", strings.ReplaceAll(privateKeyPEM, "\n", `\n`))

	if *out != "" {
		if err := os.WriteFile(*out, []byte(privateKeyPEM), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write private key file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nPrivate key saved to: %s\n", *out)
	}

	if *toVault {
		if err := storeInVault(privateKeyPEM); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to store key in Vault: %v\n", err)
			os.Exit(1)
		}
	}
}

func storeInVault(privateKeyPEM string) error {
	cfg := config.VaultConfig{
		Address:       envOr("VAULT_ADDR", "http://localhost:8200"),
		Token:         os.Getenv("VAULT_TOKEN"),
		JWTSecretPath: envOr("VAULT_JWT_SECRET_PATH", "secret/data/risk-assessment/jwt"),
		JWTSecretKey:  envOr("VAULT_JWT_SECRET_KEY", "private_key"),
	}
	if cfg.Token == "" {
		return fmt.Errorf("VAULT_TOKEN is not set")
	}

	client, err := vault.NewClient(&cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.WriteSecret(ctx, cfg.JWTSecretPath, map[string]string{cfg.JWTSecretKey: privateKeyPEM}); err != nil {
		return err
	}
	fmt.Printf("Private key stored in Vault at %s#%s\n", cfg.JWTSecretPath, cfg.JWTSecretKey)
	fmt.Println("Set VAULT_ENABLED=true to load it at startup.")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
