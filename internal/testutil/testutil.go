package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/vault"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/lib/pq"

	"risk-assessment/internal/database"
)

// VaultTestToken is the root token of the dev-mode Vault container
const VaultTestToken = "test-token"

// PostgresContainer is a migrated PostgreSQL instance
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DB        *sql.DB
	ConnStr   string
}

// VaultContainer is a dev-mode Vault instance with KV v2 mounted at secret/
type VaultContainer struct {
	Container *vault.VaultContainer
	Addr      string
	Token     string
}

// SetupPostgres starts PostgreSQL, applies the repository migrations and
// registers cleanup. Skipped under -short.
func SetupPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18",
		postgres.WithDatabase("riskassessment_test"),
		postgres.WithUsername("riskassessment_test"),
		postgres.WithPassword("riskassessment_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	migrationsDir, err := findMigrations()
	if err != nil {
		t.Fatalf("Failed to locate migrations: %v", err)
	}
	if err := database.NewMigrationExecutor(db).RunMigrations(ctx, os.DirFS(migrationsDir)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &PostgresContainer{Container: container, DB: db, ConnStr: connStr}
}

// SetupVault starts a dev-mode Vault and registers cleanup. Skipped under -short.
func SetupVault(t *testing.T) *VaultContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := vault.Run(ctx,
		"hashicorp/vault:1.15",
		vault.WithToken(VaultTestToken),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Vault server started!").
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start Vault container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("Failed to terminate Vault container: %v", err)
		}
	})

	addr, err := container.HttpHostAddress(ctx)
	if err != nil {
		t.Fatalf("Failed to get Vault address: %v", err)
	}

	if !strings.HasPrefix(addr, "http") {
		addr = "http://" + addr
	}

	return &VaultContainer{Container: container, Addr: addr, Token: VaultTestToken}
}

// findMigrations walks up from the working directory to the migrations folder
func findMigrations() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for range 5 {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		dir = filepath.Dir(dir)
	}
	return "", fmt.Errorf("migrations directory not found")
}
