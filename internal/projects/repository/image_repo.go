package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campushub/campushub-backend/internal/db"
	"github.com/campushub/campushub-backend/internal/projects/domain"
)

type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(sqlDB *sql.DB) *ImageRepository {
	return &ImageRepository{db: sqlDB}
}

// Create inserts img; ID must be set by the caller.
func (r *ImageRepository) Create(ctx context.Context, img *domain.Image) error {
	const q = `
INSERT INTO images (id, image_path, project_id)
VALUES ($1, $2, $3)
RETURNING created_at, updated_at;
`
	if err := r.db.QueryRowContext(ctx, q, img.ID, img.Path, img.ProjectID).Scan(&img.CreatedAt, &img.UpdatedAt); err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// DeleteMany removes the given image rows; ids that are already gone are ignored.
func (r *ImageRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := `DELETE FROM images WHERE id IN (` + db.Placeholders(1, len(ids)) + `);`
	if _, err := r.db.ExecContext(ctx, q, db.Args(ids)...); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	return nil
}

func (r *ImageRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Image, error) {
	const q = `
SELECT id, image_path, project_id, created_at, updated_at
FROM images
WHERE project_id = $1
ORDER BY created_at, id;
`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Image, 0, 8)
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.Path, &img.ProjectID, &img.CreatedAt, &img.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}
