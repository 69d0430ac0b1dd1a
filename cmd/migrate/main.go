package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/database"
	"github.com/pageza/pantry-chef/backend/internal/logging"
	"github.com/pageza/pantry-chef/backend/migrations"
)

var (
	dsn           string
	migrationsDir string
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations to PostgreSQL",
	Long: `Applies every migration not yet recorded in schema_migrations, in file
name order, each in its own transaction.

The embedded migrations are used unless --dir points at a directory of
*.sql files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := logging.New(config.LogConfig{Level: "info", Format: "text"})
		if dsn == "" {
			return errors.New("DATABASE_URL environment variable is not set")
		}

		var fsys fs.FS = migrations.FS
		if migrationsDir != "" {
			fsys = os.DirFS(migrationsDir)
		}

		db, err := database.OpenForMigrations(cmd.Context(), dsn)
		if err != nil {
			return err
		}
		defer func() { _ = database.Close(db) }()

		applied, err := database.RunMigrations(cmd.Context(), db, fsys, logger)
		if err != nil {
			return err
		}
		logger.Info("all migrations applied successfully", "applied", len(applied))
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	rootCmd.Flags().StringVar(&migrationsDir, "dir", "", "directory of *.sql migrations (default: embedded)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
