package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"sort"
	"strings"
)

// Migration represents a database migration
type Migration struct {
	Version  string
	Title    string // derived from the filename
	UpSQL    string
	DownSQL  string
	Checksum string // SHA256 of UpSQL
}

// MigrationExecutor applies NNN_title.up.sql files in version order
type MigrationExecutor struct {
	db *sql.DB
}

// NewMigrationExecutor creates a new migration executor
func NewMigrationExecutor(db *sql.DB) *MigrationExecutor {
	return &MigrationExecutor{db: db}
}

// RunMigrations executes all pending migrations found in fsys
func (m *MigrationExecutor) RunMigrations(ctx context.Context, fsys fs.FS) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := ReadMigrations(fsys)
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	applied, err := m.appliedChecksums(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	if err := validateChecksums(migrations, applied); err != nil {
		return fmt.Errorf("migration validation failed: %w", err)
	}

	for _, migration := range migrations {
		if _, ok := applied[migration.Version]; ok {
			continue
		}
		if err := m.executeMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
		slog.Info("Applied migration", "version", migration.Version, "title", migration.Title)
	}

	return nil
}

func (m *MigrationExecutor) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			title VARCHAR(500),
			checksum VARCHAR(64),
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// ReadMigrations loads and pairs the up/down files of fsys, sorted by version.
// Versions without an up file are ignored.
func ReadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	byVersion := make(map[string]*Migration)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		version, rest, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}

		var up bool
		switch {
		case strings.HasSuffix(rest, ".up.sql"):
			up = true
			rest = strings.TrimSuffix(rest, ".up.sql")
		case strings.HasSuffix(rest, ".down.sql"):
			rest = strings.TrimSuffix(rest, ".down.sql")
		default:
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &Migration{Version: version, Title: strings.ReplaceAll(rest, "_", " ")}
			byVersion[version] = mig
		}

		if up {
			mig.UpSQL = string(content)
			mig.Checksum = calculateChecksum(mig.UpSQL)
		} else {
			mig.DownSQL = string(content)
		}
	}

	var migrations []Migration
	for _, mig := range byVersion {
		if mig.UpSQL != "" {
			migrations = append(migrations, *mig)
		}
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// appliedChecksums maps applied versions to their recorded checksum
func (m *MigrationExecutor) appliedChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version, COALESCE(checksum, '') FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var version, checksum string
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, err
		}
		applied[version] = checksum
	}

	return applied, rows.Err()
}

func (m *MigrationExecutor) executeMigration(ctx context.Context, migration Migration) error {
	return WithTx(ctx, m.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
			return fmt.Errorf("migration SQL failed: %w", err)
		}

		query := `INSERT INTO schema_migrations (version, title, checksum) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, query, migration.Version, migration.Title, migration.Checksum); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

// validateChecksums rejects applied migrations whose file has changed since
func validateChecksums(migrations []Migration, applied map[string]string) error {
	var mismatches []string
	for _, migration := range migrations {
		recorded, ok := applied[migration.Version]
		if !ok || recorded == "" || recorded == migration.Checksum {
			continue
		}
		mismatches = append(mismatches, fmt.Sprintf(
			"\n  Migration %s (%s):\n    Expected checksum: %s\n    Current checksum:  %s",
			migration.Version, migration.Title, recorded, migration.Checksum,
		))
	}

	if len(mismatches) > 0 {
		slices.Sort(mismatches)
		return fmt.Errorf(
			"CRITICAL: Applied migrations have been modified!%s\n\n"+
				"Restore the original migration files or add a new migration for the change.",
			strings.Join(mismatches, ""),
		)
	}

	return nil
}

func calculateChecksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
