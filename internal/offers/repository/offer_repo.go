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
	"github.com/campushub/campushub-backend/internal/offers/domain"
)

const offerColumns = `o.id, o.title, o.description, o.phone_number, o.price, o.photo_path, o.owner_id, o.created_at, o.updated_at`

type OfferRepository struct {
	db *sql.DB
}

func NewOfferRepository(sqlDB *sql.DB) *OfferRepository {
	return &OfferRepository{db: sqlDB}
}

// Create inserts o and its skill links; o.ID must be set.
func (r *OfferRepository) Create(ctx context.Context, o *domain.Offer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
INSERT INTO offers (id, title, description, phone_number, price, photo_path, owner_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at;
`
	err = tx.QueryRowContext(ctx, q, o.ID, o.Title, o.Description, o.PhoneNumber, o.Price, o.PhotoPath, o.OwnerID).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}

	ids := make([]string, len(o.Skills))
	for i, s := range o.Skills {
		ids[i] = s.ID
	}
	if err := linkSkills(ctx, tx, o.ID, ids); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *OfferRepository) Get(ctx context.Context, id string) (*domain.Offer, error) {
	q := `SELECT ` + offerColumns + ` FROM offers o WHERE o.id = $1;`
	o, err := scanOffer(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.InvalidInput(err) {
			return nil, apperr.NotFound("offer not found")
		}
		return nil, fmt.Errorf("get offer: %w", err)
	}
	skills, err := r.skillsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Skills = orEmpty(skills[o.ID])
	return o, nil
}

func (r *OfferRepository) Update(ctx context.Context, id string, in domain.UpdateInput) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
UPDATE offers
SET title        = COALESCE($2, title),
    description  = COALESCE($3, description),
    phone_number = COALESCE($4, phone_number),
    price        = COALESCE($5, price),
    photo_path   = COALESCE($6, photo_path),
    updated_at   = now()
WHERE id = $1;
`
	res, err := tx.ExecContext(ctx, q, id, in.Title, in.Description, in.PhoneNumber, in.Price, in.PhotoPath)
	if err != nil {
		return fmt.Errorf("update offer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("offer not found")
	}

	if in.SkillIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM offer_skills WHERE offer_id = $1;`, id); err != nil {
			return fmt.Errorf("clear offer skills: %w", err)
		}
		if err := linkSkills(ctx, tx, id, in.SkillIDs); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes the offer row and reports whether it existed.
func (r *OfferRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1;`, id)
	if err != nil {
		return false, fmt.Errorf("delete offer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns offers newest first. Every requested skill must be present.
func (r *OfferRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.Offer, error) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Title != "" {
		conds = append(conds, "o.title ILIKE "+next("%"+db.EscapeLike(f.Title)+"%")+` ESCAPE '\'`)
	}
	if len(f.SkillIDs) > 0 {
		phs := make([]string, len(f.SkillIDs))
		for i, id := range f.SkillIDs {
			phs[i] = next(id)
		}
		conds = append(conds, fmt.Sprintf(
			`o.id IN (SELECT offer_id FROM offer_skills WHERE skill_id IN (%s) GROUP BY offer_id HAVING count(DISTINCT skill_id) = %s)`,
			strings.Join(phs, ", "), next(len(f.SkillIDs))))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	q := `SELECT ` + offerColumns + ` FROM offers o` + where +
		` ORDER BY o.created_at DESC, o.id LIMIT ` + next(f.Limit) + ` OFFSET ` + next(f.Offset) + `;`
	return r.query(ctx, q, args...)
}

func (r *OfferRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Offer, error) {
	q := `SELECT ` + offerColumns + ` FROM offers o WHERE o.owner_id = $1 ORDER BY o.created_at DESC, o.id;`
	return r.query(ctx, q, ownerID)
}

func (r *OfferRepository) query(ctx context.Context, q string, args ...any) ([]domain.Offer, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		if db.InvalidInput(err) {
			return []domain.Offer{}, nil
		}
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Offer, 0, 16)
	ids := make([]string, 0, 16)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
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

func (r *OfferRepository) skillsFor(ctx context.Context, offerIDs []string) (map[string][]catalog.Ref, error) {
	out := make(map[string][]catalog.Ref, len(offerIDs))
	if len(offerIDs) == 0 {
		return out, nil
	}
	q := `
SELECT os.offer_id, s.id, s.name
FROM offer_skills os
JOIN skills s ON s.id = os.skill_id
WHERE os.offer_id IN (` + db.Placeholders(1, len(offerIDs)) + `)
ORDER BY s.name;
`
	rows, err := r.db.QueryContext(ctx, q, db.Args(offerIDs)...)
	if err != nil {
		return nil, fmt.Errorf("load offer skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid string
		var ref catalog.Ref
		if err := rows.Scan(&oid, &ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		out[oid] = append(out[oid], ref)
	}
	return out, rows.Err()
}

func linkSkills(ctx context.Context, tx *sql.Tx, offerID string, skillIDs []string) error {
	const q = `INSERT INTO offer_skills (offer_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`
	for _, sid := range skillIDs {
		if _, err := tx.ExecContext(ctx, q, offerID, sid); err != nil {
			if db.ForeignKeyViolation(err) {
				return apperr.NotFound("skill %s not found", sid)
			}
			return fmt.Errorf("link skill: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOffer(row scanner) (*domain.Offer, error) {
	var (
		o     domain.Offer
		price sql.NullFloat64
	)
	if err := row.Scan(&o.ID, &o.Title, &o.Description, &o.PhoneNumber, &price, &o.PhotoPath, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if price.Valid {
		v := price.Float64
		o.Price = &v
	}
	return &o, nil
}

func orEmpty(refs []catalog.Ref) []catalog.Ref {
	if refs == nil {
		return []catalog.Ref{}
	}
	return refs
}
