package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/doafter-api/internal/config"
	"github.com/phrazzld/doafter-api/internal/platform/sqlstore"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds the setup work done by this package.
const TestTimeout = 5 * time.Second

// IsIntegrationTestEnvironment returns true if the DATABASE_URL environment
// variable is set, indicating that PostgreSQL tests can be run.
func IsIntegrationTestEnvironment() bool {
	return len(os.Getenv("DATABASE_URL")) > 0
}

// Open returns a migrated in-memory SQLite database that is closed when the
// test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	return open(t, config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		URL:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
}

// OpenPostgres returns a migrated PostgreSQL database from DATABASE_URL, or
// skips the test when it is not configured.
func OpenPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if !IsIntegrationTestEnvironment() {
		t.Skip("DATABASE_URL not set - skipping PostgreSQL test")
	}
	return open(t, config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		URL:          os.Getenv("DATABASE_URL"),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
}

func open(t *testing.T, cfg config.DatabaseConfig) *sql.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, dialect, err := sqlstore.Open(ctx, cfg, log)
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	migrator, err := sqlstore.NewMigrator(db, dialect, log)
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, migrator.Up(ctx), "Failed to run migrations")

	return db
}
