// Package main runs the CampusHub API server and its maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/config"
	"github.com/campushub/campushub-backend/internal/logging"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "campushub",
	Short: "CampusHub marketplace and project showcase backend",
	Long: `campushub serves the CampusHub REST API: projects, offers, user profiles,
skills and categories, plus login and image uploads.

Examples:
  # Run the API server (migrates the schema first)
  campushub serve

  # Apply migrations and exit
  campushub migrate

  # Insert the default categories and skills
  campushub seed`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// setup loads configuration and installs the global logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}

	log, err := logging.New(cfg.App.LogLevel, cfg.App.Environment, "campushub-backend")
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(log)
	return cfg, log, nil
}
