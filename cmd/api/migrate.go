package main

import (
	"github.com/spf13/cobra"

	"github.com/campushub/campushub-backend/internal/bootstrap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		conn, err := bootstrap.OpenDB(cmd.Context(), cfg.Database, log, true)
		if err != nil {
			return err
		}
		conn.Close()
		log.Info("schema up to date")
		return nil
	},
}
