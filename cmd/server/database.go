package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/doafter-api/internal/config"
	"github.com/phrazzld/doafter-api/internal/platform/sqlstore"
)

// setupAppDatabase establishes a connection to the configured database.
// Pool limits come from the database configuration.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, sqlstore.Dialect, error) {
	db, dialect, err := sqlstore.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, "", fmt.Errorf("failed to set up database: %w", err)
	}
	return db, dialect, nil
}
