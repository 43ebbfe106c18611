// Package backend turns the configured backend name into a connected
// document store.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/internal/config"
	"github.com/offthechainak/hourbank/pkg/db"
	"github.com/offthechainak/hourbank/pkg/firestore"
	"github.com/offthechainak/hourbank/pkg/memstore"
	"github.com/offthechainak/hourbank/pkg/postgres"
)

// New connects the store named by cfg.Backend. The postgres backend also
// applies pending migrations.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Store, error) {
	switch cfg.Backend {
	case "firestore":
		logger.Info("Connecting to Firestore", zap.String("project_id", cfg.Firestore.ProjectID))
		store, err := firestore.New(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		return store, nil

	case "postgres":
		logger.Info("Connecting to PostgreSQL")
		pg, err := postgres.NewDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := pg.RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return pg, nil

	case "memory":
		logger.Warn("Using in-memory store, data will not survive the process")
		return memstore.New(), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
