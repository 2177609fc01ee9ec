package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"lead_intel_backend/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func newProvider(sqlDB *sql.DB) (*goose.Provider, error) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, sub)
	if err != nil {
		return nil, fmt.Errorf("init goose provider: %w", err)
	}
	return provider, nil
}

// RunMigrations applies all pending embedded migrations.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig) error {
	sqlDB, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	provider, err := newProvider(sqlDB)
	if err != nil {
		return err
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending migrations.
func MigrationStatus(ctx context.Context, cfg config.DatabaseConfig) ([]*goose.MigrationStatus, error) {
	sqlDB, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	provider, err := newProvider(sqlDB)
	if err != nil {
		return nil, err
	}
	return provider.Status(ctx)
}
