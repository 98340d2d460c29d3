package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

var upPattern = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

type migration struct {
	version int
	name    string
	upSQL   string
}

// Migrate applies every embedded migration newer than the recorded schema version.
func Migrate(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    integer PRIMARY KEY,
    applied_at timestamptz NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT coalesce(max(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	all, err := loadMigrations()
	if err != nil {
		return err
	}

	for _, m := range all {
		if m.version <= current {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d_%s: %w", m.version, m.name, err)
		}
		log.Info("migration applied", zap.Int("version", m.version), zap.String("name", m.name))
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.upSQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return err
	}
	return tx.Commit()
}

func loadMigrations() ([]migration, error) {
	var out []migration
	err := fs.WalkDir(migrationsFS, "migrations", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		matches := upPattern.FindStringSubmatch(path.Base(p))
		if matches == nil {
			return nil
		}
		version, _ := strconv.Atoi(matches[1])
		body, err := fs.ReadFile(migrationsFS, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		out = append(out, migration{version: version, name: matches[2], upSQL: string(body)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}
