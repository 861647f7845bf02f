package main

import (
	"fmt"
	"os"

	"github.com/aditya/go-carpool/internal/config"
	"github.com/aditya/go-carpool/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	cfg    *config.Config
	logger *zap.Logger
}

var app *App

func main() {
	rootCmd := &cobra.Command{
		Use:           "carpool",
		Short:         "Carpool trip coordinator",
		Long:          `Coordinates carpool trips between drivers and riders: trip creation, ride requests, start and finish.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		if app != nil && app.logger != nil {
			app.logger.Error("command failed", zap.Error(err))
			app.logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// initApp loads configuration and builds the logger shared by every command.
func initApp() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(logging.Options{
		Level: cfg.LogLevel,
		Env:   cfg.Env,
		File:  cfg.LogFile,
	})

	app = &App{cfg: cfg, logger: logger}
	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage),
		zap.Bool("legacy_refusal", cfg.LegacyRefusal),
	)
	return nil
}
