package main

import (
	"fmt"
	"os"

	"etech-backend/internal/config"
	"etech-backend/internal/database"
	"etech-backend/internal/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Etech business backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd, cronCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap() (*config.Config, *zap.Logger, error) {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log := observability.NewLogger(cfg.LogLevel)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	if err := database.Init(cfg, log); err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	return cfg, log, nil
}
