package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aditya/go-carpool/internal/config"
	"github.com/aditya/go-carpool/internal/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.UseMemoryStorage() {
				return errors.New("migrate requires STORAGE=postgres")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := database.NewPostgres(ctx, postgresOptions(app.cfg))
			if err != nil {
				return err
			}
			defer db.Close()

			return migrate(ctx, db, app.logger)
		},
	}
}

func postgresOptions(cfg *config.Config) database.PostgresOptions {
	return database.PostgresOptions{
		URL:          cfg.DatabaseURL,
		MaxConns:     cfg.DBMaxConnections,
		MaxIdleConns: cfg.DBMaxIdleConnections,
	}
}

func migrate(ctx context.Context, db *database.PostgresDB, logger *zap.Logger) error {
	applied, err := database.RunMigrations(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) == 0 {
		logger.Info("database schema is up to date")
		return nil
	}
	logger.Info("migrations applied", zap.Strings("files", applied))
	return nil
}
