package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/campushub/campushub-backend/internal/apperr"
	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/db"
	"github.com/campushub/campushub-backend/internal/users/domain"
)

const userColumns = `id, pc_number, password_hash, first_name, last_name, mail, mail_verified,
       description, department, class, photo_path, role, github_link, linkedin_link,
       banner_link, firebase_uid, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(sqlDB *sql.DB) *UserRepository {
	return &UserRepository{db: sqlDB}
}

// Get loads a user with skills by id.
func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByPCNumber(ctx context.Context, pc int64) (*domain.User, error) {
	return r.getOne(ctx, `WHERE pc_number = $1`, pc)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users ` + where + `;`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.InvalidInput(err) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	skills, err := r.skillsFor(ctx, []string{u.ID})
	if err != nil {
		return nil, err
	}
	u.Skills = orEmpty(skills[u.ID])
	return u, nil
}

// Create inserts u; an empty ID is generated.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = domain.RoleStudent
	}
	const q = `
INSERT INTO users (id, pc_number, password_hash, first_name, last_name, mail, role, firebase_uid)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at;
`
	err := r.db.QueryRowContext(ctx, q,
		u.ID, u.PCNumber, u.PasswordHash, u.FirstName, u.LastName, u.Mail, u.Role, u.FirebaseUID,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if constraint, ok := db.UniqueViolation(err); ok {
			return apperr.Conflict("user with %s already exists", db.ConstraintField("users", constraint))
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if u.Skills == nil {
		u.Skills = []catalog.Ref{}
	}
	return nil
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id, hash)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return requireOne(res)
}

// SetMail stores a confirmed mail address.
func (r *UserRepository) SetMail(ctx context.Context, id, mail string) error {
	const q = `UPDATE users SET mail = $2, mail_verified = true, updated_at = now() WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id, mail)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return apperr.Conflict("mail %q is already in use", mail)
		}
		return fmt.Errorf("set mail: %w", err)
	}
	return requireOne(res)
}

// EnsureExternal returns the id of the user linked to an identity provider
// uid, creating the user on first sight.
func (r *UserRepository) EnsureExternal(ctx context.Context, firebaseUID, mail string) (string, error) {
	if firebaseUID == "" {
		return "", fmt.Errorf("firebase uid required")
	}

	const q = `
INSERT INTO users (id, firebase_uid, mail, mail_verified, updated_at)
VALUES ($1, $2, nullif($3, ''), $3 <> '', now())
ON CONFLICT (firebase_uid) DO UPDATE
SET mail       = coalesce(users.mail, excluded.mail),
    updated_at = now()
RETURNING id;
`
	var id string
	if err := r.db.QueryRowContext(ctx, q, uuid.NewString(), firebaseUID, mail).Scan(&id); err != nil {
		return "", fmt.Errorf("ensure external user: %w", err)
	}
	return id, nil
}

// Update applies the non-nil profile fields; a non-nil SkillIDs replaces the skill set.
func (r *UserRepository) Update(ctx context.Context, id string, in domain.UpdateInput) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
UPDATE users
SET first_name    = COALESCE($2, first_name),
    last_name     = COALESCE($3, last_name),
    description   = COALESCE($4, description),
    department    = COALESCE($5, department),
    class         = COALESCE($6, class),
    github_link   = COALESCE($7, github_link),
    linkedin_link = COALESCE($8, linkedin_link),
    banner_link   = COALESCE($9, banner_link),
    photo_path    = COALESCE($10, photo_path),
    updated_at    = now()
WHERE id = $1;
`
	res, err := tx.ExecContext(ctx, q, id,
		in.FirstName, in.LastName, in.Description, in.Department, in.Class,
		in.GithubLink, in.LinkedinLink, in.BannerLink, in.PhotoPath,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if err := requireOne(res); err != nil {
		return err
	}

	if in.SkillIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_skills WHERE user_id = $1;`, id); err != nil {
			return fmt.Errorf("clear user skills: %w", err)
		}
		for _, sid := range in.SkillIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_skills (user_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`, id, sid); err != nil {
				return fmt.Errorf("link skill: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns users matching f ordered by name.
func (r *UserRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.User, error) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Department != "" {
		conds = append(conds, "department = "+next(f.Department))
	}
	if f.ClassPrefix != "" {
		conds = append(conds, "class ILIKE "+next(db.EscapeLike(f.ClassPrefix)+"%")+` ESCAPE '\'`)
	}
	if f.PCNumber != nil {
		conds = append(conds, "pc_number = "+next(*f.PCNumber))
	}
	if f.NameContains != "" {
		ph := next("%" + db.EscapeLike(f.NameContains) + "%")
		conds = append(conds, fmt.Sprintf(`(first_name ILIKE %[1]s ESCAPE '\' OR last_name ILIKE %[1]s ESCAPE '\')`, ph))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	q := `SELECT ` + userColumns + ` FROM users ` + where +
		` ORDER BY last_name, first_name, id LIMIT ` + next(f.Limit) + ` OFFSET ` + next(f.Offset) + `;`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0, f.Limit)
	ids := make([]string, 0, f.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	skills, err := r.skillsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Skills = orEmpty(skills[out[i].ID])
	}
	return out, nil
}

func (r *UserRepository) skillsFor(ctx context.Context, userIDs []string) (map[string][]catalog.Ref, error) {
	out := make(map[string][]catalog.Ref, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	q := `
SELECT us.user_id, s.id, s.name
FROM user_skills us
JOIN skills s ON s.id = us.skill_id
WHERE us.user_id IN (` + db.Placeholders(1, len(userIDs)) + `)
ORDER BY s.name;
`
	rows, err := r.db.QueryContext(ctx, q, db.Args(userIDs)...)
	if err != nil {
		return nil, fmt.Errorf("load user skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uid string
		var ref catalog.Ref
		if err := rows.Scan(&uid, &ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		out[uid] = append(out[uid], ref)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u           domain.User
		pc          sql.NullInt64
		mail        sql.NullString
		firebaseUID sql.NullString
	)
	err := row.Scan(
		&u.ID, &pc, &u.PasswordHash, &u.FirstName, &u.LastName, &mail, &u.MailVerified,
		&u.Description, &u.Department, &u.Class, &u.PhotoPath, &u.Role, &u.GithubLink, &u.LinkedinLink,
		&u.BannerLink, &firebaseUID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if pc.Valid {
		v := pc.Int64
		u.PCNumber = &v
	}
	if mail.Valid {
		v := mail.String
		u.Mail = &v
	}
	if firebaseUID.Valid {
		v := firebaseUID.String
		u.FirebaseUID = &v
	}
	return &u, nil
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func orEmpty(refs []catalog.Ref) []catalog.Ref {
	if refs == nil {
		return []catalog.Ref{}
	}
	return refs
}
