package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/config"
	"github.com/campushub/campushub-backend/internal/db"
)

// OpenDB connects to Postgres and, when migrate is set, brings the schema up to date.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger, migrate bool) (*db.DB, error) {
	if cfg.DSN == "" && cfg.Host == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if migrate {
		if err := db.Migrate(ctx, conn.SQL, log); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	log.Info("database connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Int("max_conns", cfg.MaxConns),
	)
	return conn, nil
}
