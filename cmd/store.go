package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/database"
	"github.com/faceattend/faceattend/internal/database/postgres"
	"github.com/faceattend/faceattend/internal/database/sqlite"
)

// openStore opens the attendance store selected by STORAGE_BACKEND.
func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, errors.New("DATABASE_URL environment variable is required")
		}
		store, err := postgres.Open(&cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q (want sqlite or postgres)", cfg.Storage.Backend)
}
