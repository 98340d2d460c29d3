package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-backend/internal/apperr"
	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/projects/domain"
)

func setupProjectRepo(t *testing.T) (*ProjectRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewProjectRepository(db), mock, db
}

func newProject() *domain.Project {
	return &domain.Project{
		ID:               "p-1",
		Title:            "Line follower",
		Category:         catalog.Ref{ID: "cat-1", Name: "Robotics"},
		ShortDescription: "A small robot that follows a line",
		OwnerID:          "u-1",
		Status:           domain.StatusPlanned,
		Skills:           []catalog.Ref{{ID: "s-1", Name: "c"}, {ID: "s-2", Name: "go"}},
	}
}

func TestProjectRepository_Create(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()

	t.Run("inserts project and skill links", func(t *testing.T) {
		p := newProject()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO projects`).
			WithArgs("p-1", "Line follower", "cat-1", "A small robot that follows a line", "", sqlmock.AnyArg(), "u-1", "planned").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`INSERT INTO project_skills`).WithArgs("p-1", "s-1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO project_skills`).WithArgs("p-1", "s-2").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(context.Background(), p))
		assert.Equal(t, now, p.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate title is a conflict", func(t *testing.T) {
		p := newProject()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO projects`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "projects_title_key"})
		mock.ExpectRollback()

		err := repo.Create(context.Background(), p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrConflict))
		assert.Equal(t, `Project with title "Line follower" already exists`, err.Error())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown skill rolls back", func(t *testing.T) {
		p := newProject()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO projects`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`INSERT INTO project_skills`).WithArgs("p-1", "s-1").
			WillReturnError(&pgconn.PgError{Code: "23503"})
		mock.ExpectRollback()

		err := repo.Create(context.Background(), p)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProjectRepository_Get(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()
	now := time.Now()

	mock.ExpectQuery(`FROM projects p\s+JOIN categories c`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "category_id", "name", "short_description", "full_readme",
			"deadline", "owner_id", "status", "created_at", "updated_at",
		}).AddRow("p-1", "Line follower", "cat-1", "Robotics", "short", "readme", nil, "u-1", "in_progress", now, now))
	mock.ExpectQuery(`FROM project_skills ps`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "id", "name"}).AddRow("p-1", "s-2", "go"))

	p, err := repo.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Robotics", p.Category.Name)
	assert.Equal(t, domain.StatusInProgress, p.Status)
	assert.Nil(t, p.Deadline)
	assert.Equal(t, []catalog.Ref{{ID: "s-2", Name: "go"}}, p.Skills)

	mock.ExpectQuery(`FROM projects p`).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_List(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()

	f := domain.ListFilter{Search: "50%", Status: domain.StatusPlanned, Page: 2, Limit: 10}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM projects p`)).
		WithArgs(`%50\%%`, "planned").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`ORDER BY p.created_at DESC\s+LIMIT \$3 OFFSET \$4`).
		WithArgs(`%50\%%`, "planned", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "short_description", "deadline", "status"}).
			AddRow("p-11", "Oldest", "short text", nil, "planned"))
	mock.ExpectQuery(`FROM project_skills ps`).
		WithArgs("p-11").
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "id", "name"}))

	items, total, err := repo.List(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, items, 1)
	assert.Equal(t, "p-11", items[0].ID)
	assert.NotNil(t, items[0].Tags)
	assert.Empty(t, items[0].Tags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWhereSkillsRequireAll(t *testing.T) {
	where, args := listWhere(domain.ListFilter{Category: "cat-1", SkillIDs: []string{"s-1", "s-2"}})

	assert.Contains(t, where, "p.category_id = $1")
	assert.Contains(t, where, "skill_id IN ($2, $3)")
	assert.Contains(t, where, "HAVING count(DISTINCT skill_id) = $4")
	assert.Equal(t, []any{"cat-1", "s-1", "s-2", 2}, args)

	where, args = listWhere(domain.ListFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestProjectRepository_Delete(t *testing.T) {
	repo, mock, db := setupProjectRepo(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM projects`).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM projects`).WithArgs("p-1").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Delete(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(context.Background(), "p-1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImageRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewImageRepository(db)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO images`).
		WithArgs("img-1", "projects/p-1/a.png", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	img := &domain.Image{ID: "img-1", Path: "projects/p-1/a.png", ProjectID: "p-1"}
	require.NoError(t, repo.Create(context.Background(), img))
	assert.Equal(t, now, img.UpdatedAt)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM images WHERE id IN ($1, $2)`)).
		WithArgs("img-1", "img-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteMany(context.Background(), []string{"img-1", "img-2"}))
	require.NoError(t, repo.DeleteMany(context.Background(), nil))

	require.NoError(t, mock.ExpectationsWereMet())
}
