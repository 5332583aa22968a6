/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"

	"github.com/humaidq/labrisk/catalog"

	// Register pgx with database/sql for goose migrations.
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// GetEmbeddedMigrations returns the embedded migrations filesystem for use by CLI commands
func GetEmbeddedMigrations() embed.FS {
	return embedMigrations
}

// SyncSchema runs database migrations using goose and seeds the catalog
// tables when they are empty. An empty databaseURL falls back to
// DATABASE_URL.
func SyncSchema(ctx context.Context, databaseURL string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	if databaseURL == "" {
		return ErrDatabaseURLEnvVarNotSet
	}

	if err := migrateUp(databaseURL); err != nil {
		return err
	}

	if err := seedCatalogIfEmpty(ctx); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	return nil
}

func migrateUp(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close migration connection", "error", err)
		}
	}()

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func seedCatalogIfEmpty(ctx context.Context) error {
	count, err := CountMarkers(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	seed, err := catalog.Seed()
	if err != nil {
		return err
	}

	markers, err := seed.ListMarkers(ctx)
	if err != nil {
		return err
	}

	conditions, err := seed.ListConditions(ctx)
	if err != nil {
		return err
	}

	logger.Info("Seeding empty catalog", "markers", len(markers), "conditions", len(conditions))

	return SyncCatalog(ctx, markers, conditions)
}
