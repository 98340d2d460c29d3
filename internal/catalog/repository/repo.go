package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/campushub/campushub-backend/internal/apperr"
	"github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/db"
)

// Repository reads categories and skills.
type Repository struct {
	db *sql.DB
}

func New(sqlDB *sql.DB) *Repository {
	return &Repository{db: sqlDB}
}

// FindCategory returns the category with id, or a NotFound error.
func (r *Repository) FindCategory(ctx context.Context, id string) (*domain.Category, error) {
	const q = `
SELECT id, name, created_at, updated_at
FROM categories
WHERE id = $1;
`
	var c domain.Category
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.InvalidInput(err) {
			return nil, apperr.NotFound("category %s not found", id)
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &c, nil
}

// FindSkills returns the skills whose ids are in ids. Unknown ids are simply
// absent from the result.
func (r *Repository) FindSkills(ctx context.Context, ids []string) ([]domain.Skill, error) {
	if len(ids) == 0 {
		return []domain.Skill{}, nil
	}
	q := `
SELECT id, name, created_at, updated_at
FROM skills
WHERE id IN (` + db.Placeholders(1, len(ids)) + `)
ORDER BY name;
`
	return r.querySkills(ctx, q, db.Args(ids)...)
}

func (r *Repository) ListSkills(ctx context.Context) ([]domain.Skill, error) {
	const q = `
SELECT id, name, created_at, updated_at
FROM skills
ORDER BY name;
`
	return r.querySkills(ctx, q)
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id, name, created_at, updated_at
FROM categories
ORDER BY name;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SeedCategories inserts names that are not present yet and reports how many were added.
func (r *Repository) SeedCategories(ctx context.Context, names []string) (int, error) {
	return r.seed(ctx, "categories", names)
}

func (r *Repository) SeedSkills(ctx context.Context, names []string) (int, error) {
	return r.seed(ctx, "skills", names)
}

func (r *Repository) seed(ctx context.Context, table string, names []string) (int, error) {
	q := `INSERT INTO ` + table + ` (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING;`

	added := 0
	for _, name := range names {
		res, err := r.db.ExecContext(ctx, q, uuid.NewString(), name)
		if err != nil {
			return added, fmt.Errorf("seed %s %q: %w", table, name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return added, err
		}
		added += int(n)
	}
	return added, nil
}

func (r *Repository) querySkills(ctx context.Context, q string, args ...any) ([]domain.Skill, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		if db.InvalidInput(err) {
			return []domain.Skill{}, nil
		}
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Skill, 0, 16)
	for rows.Next() {
		var s domain.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
