package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/campushub/campushub-backend/internal/apperr"
	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/db"
	"github.com/campushub/campushub-backend/internal/projects/domain"
)

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(sqlDB *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: sqlDB}
}

// Create inserts p together with its skill links in one transaction.
// p.ID must already be set; timestamps are filled from the database.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
INSERT INTO projects (id, title, category_id, short_description, full_readme, deadline, owner_id, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at;
`
	err = tx.QueryRowContext(ctx, q,
		p.ID, p.Title, p.Category.ID, p.ShortDescription, p.FullReadme, p.Deadline, p.OwnerID, string(p.Status),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return conflictOr(err, p.Title, "insert project")
	}

	if err := insertSkills(ctx, tx, p.ID, refIDs(p.Skills)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get loads a project with its category and skills.
func (r *ProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	const q = `
SELECT p.id, p.title, p.category_id, c.name, p.short_description, p.full_readme,
       p.deadline, p.owner_id, p.status, p.created_at, p.updated_at
FROM projects p
JOIN categories c ON c.id = p.category_id
WHERE p.id = $1;
`
	var (
		p        domain.Project
		deadline sql.NullTime
		status   string
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Title, &p.Category.ID, &p.Category.Name, &p.ShortDescription, &p.FullReadme,
		&deadline, &p.OwnerID, &status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.InvalidInput(err) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	if deadline.Valid {
		t := deadline.Time
		p.Deadline = &t
	}
	p.Status = domain.Status(status)

	tags, err := r.tagsFor(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Skills = tags[p.ID]
	if p.Skills == nil {
		p.Skills = []catalog.Ref{}
	}
	return &p, nil
}

// Update applies the non-nil fields of in. A non-nil SkillIDs replaces the
// skill set.
func (r *ProjectRepository) Update(ctx context.Context, id string, in domain.UpdateInput) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status *string
	if in.Status != nil {
		s := string(*in.Status)
		status = &s
	}

	const q = `
UPDATE projects
SET title             = COALESCE($2, title),
    category_id       = COALESCE($3, category_id),
    short_description = COALESCE($4, short_description),
    full_readme       = COALESCE($5, full_readme),
    deadline          = COALESCE($6, deadline),
    status            = COALESCE($7, status),
    updated_at        = now()
WHERE id = $1;
`
	res, err := tx.ExecContext(ctx, q, id, in.Title, in.CategoryID, in.ShortDescription, in.FullReadme, in.Deadline, status)
	if err != nil {
		title := ""
		if in.Title != nil {
			title = *in.Title
		}
		return conflictOr(err, title, "update project")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("project not found")
	}

	if in.SkillIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_skills WHERE project_id = $1;`, id); err != nil {
			return fmt.Errorf("clear project skills: %w", err)
		}
		if err := insertSkills(ctx, tx, id, in.SkillIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	const q = `
UPDATE projects
SET status = $2, updated_at = now()
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, id, string(status))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("project not found")
	}
	return nil
}

// Delete removes the project row; skills and images cascade. It reports
// whether a row was removed so rollback can replay it safely.
func (r *ProjectRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1;`, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns one page of summaries, newest first, and the total match count.
func (r *ProjectRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.Summary, int, error) {
	where, args := listWhere(f)

	var total int
	countQ := `SELECT count(*) FROM projects p` + where + `;`
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	pageArgs := append(args, f.Limit, f.Offset())
	q := `
SELECT p.id, p.title, p.short_description, p.deadline, p.status
FROM projects p` + where + `
ORDER BY p.created_at DESC
LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2) + `;
`
	items, err := r.summaries(ctx, q, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByOwner returns every project of ownerID, newest first.
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Summary, error) {
	const q = `
SELECT p.id, p.title, p.short_description, p.deadline, p.status
FROM projects p
WHERE p.owner_id = $1
ORDER BY p.created_at DESC;
`
	return r.summaries(ctx, q, ownerID)
}

func (r *ProjectRepository) summaries(ctx context.Context, q string, args ...any) ([]domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		if db.InvalidInput(err) {
			return []domain.Summary{}, nil
		}
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Summary, 0, 16)
	ids := make([]string, 0, 16)
	for rows.Next() {
		var (
			s        domain.Summary
			deadline sql.NullTime
			status   string
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.ShortDescription, &deadline, &status); err != nil {
			return nil, err
		}
		if deadline.Valid {
			t := deadline.Time
			s.Deadline = &t
		}
		s.Status = domain.Status(status)
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := r.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Tags = tags[out[i].ID]
		if out[i].Tags == nil {
			out[i].Tags = []catalog.Ref{}
		}
	}
	return out, nil
}

func (r *ProjectRepository) tagsFor(ctx context.Context, projectIDs []string) (map[string][]catalog.Ref, error) {
	out := make(map[string][]catalog.Ref, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}
	q := `
SELECT ps.project_id, s.id, s.name
FROM project_skills ps
JOIN skills s ON s.id = ps.skill_id
WHERE ps.project_id IN (` + db.Placeholders(1, len(projectIDs)) + `)
ORDER BY s.name;
`
	rows, err := r.db.QueryContext(ctx, q, db.Args(projectIDs)...)
	if err != nil {
		return nil, fmt.Errorf("load project skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pid string
		var ref catalog.Ref
		if err := rows.Scan(&pid, &ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		out[pid] = append(out[pid], ref)
	}
	return out, rows.Err()
}

func listWhere(f domain.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		ph := next("%" + db.EscapeLike(s) + "%")
		conds = append(conds, fmt.Sprintf(
			`(p.title ILIKE %[1]s ESCAPE '\' OR p.short_description ILIKE %[1]s ESCAPE '\' OR p.full_readme ILIKE %[1]s ESCAPE '\')`, ph))
	}
	if f.Category != "" {
		conds = append(conds, "p.category_id = "+next(f.Category))
	}
	if f.Status != "" {
		conds = append(conds, "p.status = "+next(string(f.Status)))
	}
	if len(f.SkillIDs) > 0 {
		phs := make([]string, len(f.SkillIDs))
		for i, id := range f.SkillIDs {
			phs[i] = next(id)
		}
		conds = append(conds, fmt.Sprintf(
			`p.id IN (SELECT project_id FROM project_skills WHERE skill_id IN (%s) GROUP BY project_id HAVING count(DISTINCT skill_id) = %s)`,
			strings.Join(phs, ", "), next(len(f.SkillIDs))))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func insertSkills(ctx context.Context, tx *sql.Tx, projectID string, skillIDs []string) error {
	const q = `INSERT INTO project_skills (project_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`
	for _, sid := range skillIDs {
		if _, err := tx.ExecContext(ctx, q, projectID, sid); err != nil {
			if db.ForeignKeyViolation(err) {
				return apperr.NotFound("skill %s not found", sid)
			}
			return fmt.Errorf("link skill: %w", err)
		}
	}
	return nil
}

func conflictOr(err error, title, op string) error {
	if constraint, ok := db.UniqueViolation(err); ok {
		field := db.ConstraintField("projects", constraint)
		value := ""
		if field == "title" {
			value = title
		}
		return apperr.Conflict("Project with %s %q already exists", field, value)
	}
	if db.ForeignKeyViolation(err) {
		return apperr.NotFound("referenced category or owner not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func refIDs(refs []catalog.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}
