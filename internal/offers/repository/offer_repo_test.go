package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-backend/internal/apperr"
	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/offers/domain"
)

var offerCols = []string{"id", "title", "description", "phone_number", "price", "photo_path", "owner_id", "created_at", "updated_at"}

func setupOfferRepo(t *testing.T) (*OfferRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewOfferRepository(db), mock
}

func TestOfferRepository_Create(t *testing.T) {
	repo, mock := setupOfferRepo(t)
	now := time.Now()
	o := &domain.Offer{
		ID: "o-1", Title: "Kit", Description: "Starter kit", PhoneNumber: "12345", OwnerID: "u-1",
		Skills: []catalog.Ref{{ID: "s-1", Name: "go"}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO offers`).
		WithArgs("o-1", "Kit", "Starter kit", "12345", sqlmock.AnyArg(), "", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO offer_skills`).
		WithArgs("o-1", "s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	assert.Equal(t, now, o.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepository_CreateUnknownSkill(t *testing.T) {
	repo, mock := setupOfferRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO offers`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO offer_skills`).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &domain.Offer{ID: "o-1", Skills: []catalog.Ref{{ID: "s-9"}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepository_Get(t *testing.T) {
	repo, mock := setupOfferRepo(t)
	now := time.Now()

	t.Run("with price", func(t *testing.T) {
		mock.ExpectQuery(`FROM offers o WHERE o.id = \$1`).
			WithArgs("o-1").
			WillReturnRows(sqlmock.NewRows(offerCols).AddRow("o-1", "Kit", "d", "12345", 12.5, "offers/o-1/a.png", "u-1", now, now))
		mock.ExpectQuery(`FROM offer_skills os`).
			WithArgs("o-1").
			WillReturnRows(sqlmock.NewRows([]string{"offer_id", "id", "name"}))

		o, err := repo.Get(context.Background(), "o-1")
		require.NoError(t, err)
		require.NotNil(t, o.Price)
		assert.Equal(t, 12.5, *o.Price)
		assert.NotNil(t, o.Skills)
		assert.Empty(t, o.Skills)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(`FROM offers o WHERE o.id`).
			WithArgs("o-2").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "o-2")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepository_UpdateMissing(t *testing.T) {
	repo, mock := setupOfferRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE offers`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), "o-1", domain.UpdateInput{})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepository_ListFilters(t *testing.T) {
	repo, mock := setupOfferRepo(t)

	mock.ExpectQuery(`o.title ILIKE \$1 .* HAVING count\(DISTINCT skill_id\) = \$4\) ORDER BY o.created_at DESC, o.id LIMIT \$5 OFFSET \$6`).
		WithArgs(`%50\%%`, "s-1", "s-2", 2, 20, 40).
		WillReturnRows(sqlmock.NewRows(offerCols))

	out, err := repo.List(context.Background(), domain.ListFilter{
		Title: "50%", SkillIDs: []string{"s-1", "s-2"}, Limit: 20, Offset: 40,
	})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferRepository_Delete(t *testing.T) {
	repo, mock := setupOfferRepo(t)

	mock.ExpectExec(`DELETE FROM offers`).WithArgs("o-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM offers`).WithArgs("o-1").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Delete(context.Background(), "o-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(context.Background(), "o-1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
