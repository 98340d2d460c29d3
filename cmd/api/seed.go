package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/internal/bootstrap"
	"github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/catalog/repository"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default categories and skills",
	Long: `Insert the default project categories and skills. Existing names are left
untouched, so the command can be run repeatedly.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx := cmd.Context()
		conn, err := bootstrap.OpenDB(ctx, cfg.Database, log, true)
		if err != nil {
			return err
		}
		defer conn.Close()

		repo := repository.New(conn.SQL)
		categories, err := repo.SeedCategories(ctx, domain.DefaultCategories)
		if err != nil {
			return err
		}
		skills, err := repo.SeedSkills(ctx, domain.DefaultSkills)
		if err != nil {
			return err
		}
		log.Info("catalog seeded", zap.Int("categories", categories), zap.Int("skills", skills))
		return nil
	},
}
