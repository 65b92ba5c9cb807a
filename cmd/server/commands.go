package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/doafter-api/internal/platform/tracing"
	"github.com/spf13/cobra"
)

// tracingShutdownTimeout bounds the final span flush.
const tracingShutdownTimeout = 5 * time.Second

// newRootCommand builds the command tree:
//
//	doafter-api serve [--migrate=false]
//	doafter-api migrate up|down|status
//	doafter-api hash-password [password...]
func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "doafter-api",
		Short: "Multi-user todo REST API",
		Long: `doafter-api serves a JSON REST API for registering users and managing
their personal todos.

CONFIGURATION:
  Settings come from an optional YAML file (--config or ./config.yaml) and
  DOAFTER_* environment variables, which take precedence:
    DOAFTER_SERVER_PORT, DOAFTER_SERVER_LOG_LEVEL, DOAFTER_SERVER_ENVIRONMENT
    DOAFTER_DATABASE_DRIVER (postgres|sqlite), DOAFTER_DATABASE_URL
    DOAFTER_AUTH_JWT_SECRET, DOAFTER_AUTH_TOKEN_LIFETIME_MINUTES
    DOAFTER_TRACING_ENABLED, DOAFTER_TRACING_ENDPOINT`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML configuration file")

	root.AddCommand(newServeCommand(&configPath))
	root.AddCommand(newMigrateCommand(&configPath))
	root.AddCommand(newHashPasswordCommand())
	return root
}

func newServeCommand(configPath *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *configPath, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

// runServe wires the application and blocks until ctx is cancelled.
func runServe(ctx context.Context, configPath string, migrate bool) error {
	cfg, err := loadAppConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	db, dialect, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if migrate {
		if err := runMigrations(ctx, db, dialect, logger, "up", nil); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(cfg, logger, db, dialect)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
