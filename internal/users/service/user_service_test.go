package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-backend/internal/apperr"
	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/storage/files"
	"github.com/campushub/campushub-backend/internal/uploads"
	"github.com/campushub/campushub-backend/internal/users/domain"
)

const (
	userID  = "6f9b2c1d-3e4a-4b5c-8d6e-7f8091a2b3c4"
	skillGo = "1c0e8f3e-2a6b-4d2b-8b0e-5d4c3b2a1f01"
)

type memUsers struct {
	rows      map[string]domain.User
	updateErr error
}

func (m *memUsers) Get(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (m *memUsers) List(context.Context, domain.ListFilter) ([]domain.User, error) {
	out := make([]domain.User, 0, len(m.rows))
	for _, u := range m.rows {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, id string, in domain.UpdateInput) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	u := m.rows[id]
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.PhotoPath != nil {
		u.PhotoPath = *in.PhotoPath
	}
	if in.SkillIDs != nil {
		u.Skills = nil
		for _, sid := range in.SkillIDs {
			u.Skills = append(u.Skills, catalog.Ref{ID: sid})
		}
	}
	m.rows[id] = u
	return nil
}

type memSkills struct{}

func (memSkills) FindSkills(_ context.Context, ids []string) ([]catalog.Skill, error) {
	var out []catalog.Skill
	for _, id := range ids {
		if id == skillGo {
			out = append(out, catalog.Skill{ID: id, Name: "go"})
		}
	}
	return out, nil
}

func setup(t *testing.T) (*UserService, *memUsers, *files.Store) {
	t.Helper()
	store, err := files.New(filepath.Join(t.TempDir(), "public"))
	require.NoError(t, err)
	users := &memUsers{rows: map[string]domain.User{userID: {ID: userID, Role: domain.RoleStudent}}}
	return NewUserService(users, memSkills{}, store), users, store
}

func stagePhoto(t *testing.T, name string) *uploads.StagedFile {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("\x89PNG\r\n\x1a\n"), 0o644))
	return &uploads.StagedFile{OriginalName: name, Filename: name, StagedPath: p}
}

func TestUpdateMe_FieldsAndSkills(t *testing.T) {
	svc, _, _ := setup(t)
	name := "Ana"

	v, err := svc.UpdateMe(context.Background(), userID, domain.UpdateInput{FirstName: &name, SkillIDs: []string{skillGo}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana", v.FirstName)
	require.Len(t, v.Skills, 1)
	assert.Equal(t, skillGo, v.Skills[0].ID)
}

func TestUpdateMe_UnknownSkill(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.UpdateMe(context.Background(), userID, domain.UpdateInput{
		SkillIDs: []string{skillGo, "00000000-0000-0000-0000-000000000000"},
	}, nil)
	assert.EqualError(t, err, "One or more skill IDs are invalid")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestUpdateMe_ReplacesPhoto(t *testing.T) {
	svc, users, store := setup(t)
	ctx := context.Background()

	first, err := svc.UpdateMe(ctx, userID, domain.UpdateInput{}, stagePhoto(t, "one.png"))
	require.NoError(t, err)
	assert.Equal(t, "users/"+userID+"/one.png", first.PhotoPath)
	assert.True(t, store.Exists(first.PhotoPath))

	second, err := svc.UpdateMe(ctx, userID, domain.UpdateInput{}, stagePhoto(t, "two.png"))
	require.NoError(t, err)
	assert.Equal(t, "users/"+userID+"/two.png", second.PhotoPath)
	assert.True(t, store.Exists(second.PhotoPath))
	assert.False(t, store.Exists(first.PhotoPath), "previous photo is removed")
	assert.Equal(t, second.PhotoPath, users.rows[userID].PhotoPath)
}

func TestUpdateMe_FailedUpdateRemovesNewPhoto(t *testing.T) {
	svc, users, store := setup(t)
	users.updateErr = errors.New("db down")

	_, err := svc.UpdateMe(context.Background(), userID, domain.UpdateInput{}, stagePhoto(t, "one.png"))
	require.Error(t, err)
	assert.False(t, store.Exists("users/"+userID+"/one.png"))
	assert.Empty(t, users.rows[userID].PhotoPath)
}

func TestGet(t *testing.T) {
	svc, _, _ := setup(t)

	v, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, v.Skills)

	_, err = svc.Get(context.Background(), "42")
	assert.EqualError(t, err, "invalid user id")

	_, err = svc.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestParseListQuery(t *testing.T) {
	f, err := ParseListQuery(ListQuery{Department: " CS ", Class: "CS-2", PCID: "1234"})
	require.NoError(t, err)
	assert.Equal(t, "CS", f.Department)
	assert.Equal(t, "CS-2", f.ClassPrefix)
	require.NotNil(t, f.PCNumber)
	assert.EqualValues(t, 1234, *f.PCNumber)
	assert.Equal(t, defaultListLimit, f.Limit)

	_, err = ParseListQuery(ListQuery{PCID: "abc"})
	assert.EqualError(t, err, "invalid pc_id")

	_, err = ParseListQuery(ListQuery{Limit: "1000"})
	assert.EqualError(t, err, "invalid limit")

	_, err = ParseListQuery(ListQuery{Offset: "-1"})
	assert.EqualError(t, err, "invalid offset")
}

func TestParseUpdateMe(t *testing.T) {
	in, err := ParseUpdateMe(UpdateMeRequest{Skills: []string{skillGo, " " + skillGo}})
	require.NoError(t, err)
	assert.Equal(t, []string{skillGo}, in.SkillIDs)

	bad := "not a url"
	_, err = ParseUpdateMe(UpdateMeRequest{GithubLink: &bad})
	assert.EqualError(t, err, "github_link must be a valid url")
}
