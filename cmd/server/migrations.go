package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/phrazzld/doafter-api/internal/platform/sqlstore"
	"github.com/spf13/cobra"
)

// Supported migrate subcommands.
var migrationCommands = []string{"up", "down", "status"}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|status",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadAppConfig(*configPath)
			if err != nil {
				return err
			}
			logger, err := setupAppLogger(cfg)
			if err != nil {
				return err
			}
			db, dialect, err := setupAppDatabase(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return runMigrations(ctx, db, dialect, logger, args[0], cmd.OutOrStdout())
		},
	}
}

// runMigrations executes one migrate subcommand against db. Status output is
// written to out.
func runMigrations(
	ctx context.Context,
	db *sql.DB,
	dialect sqlstore.Dialect,
	logger *slog.Logger,
	command string,
	out io.Writer,
) error {
	migrator, err := sqlstore.NewMigrator(db, dialect, logger)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		if err := migrator.Up(ctx); err != nil {
			return err
		}
	case "down":
		if err := migrator.Down(ctx); err != nil {
			return err
		}
	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		return writeMigrationStatus(out, statuses)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}

	version, err := migrator.Version(ctx)
	if err != nil {
		return err
	}
	logger.Info("database schema is current", slog.String("command", command), slog.Int64("version", version))
	return nil
}

func writeMigrationStatus(out io.Writer, statuses []sqlstore.MigrationStatus) error {
	if out == nil {
		out = io.Discard
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tFILE")
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, state, s.Path)
	}
	return tw.Flush()
}
