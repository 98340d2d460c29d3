package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-backend/internal/apperr"
	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/projects/domain"
	"github.com/campushub/campushub-backend/internal/storage/files"
	"github.com/campushub/campushub-backend/internal/uploads"
)

const (
	catRobotics = "8a1f6a52-6c1e-4b55-9d7e-0f3b7f0c1a01"
	skillGo     = "1c0e8f3e-2a6b-4d2b-8b0e-5d4c3b2a1f01"
	skillSQL    = "1c0e8f3e-2a6b-4d2b-8b0e-5d4c3b2a1f02"
	ownerID     = "6f9b2c1d-3e4a-4b5c-8d6e-7f8091a2b3c4"
)

type memProjects struct {
	mu        sync.Mutex
	rows      map[string]domain.Project
	createErr error
}

func newMemProjects() *memProjects {
	return &memProjects{rows: map[string]domain.Project{}}
}

func (m *memProjects) Create(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, r := range m.rows {
		if r.Title == p.Title {
			return apperr.Conflict("Project with title %q already exists", p.Title)
		}
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	m.rows[p.ID] = *p
	return nil
}

func (m *memProjects) Get(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFound("project not found")
	}
	return &p, nil
}

func (m *memProjects) Update(_ context.Context, id string, in domain.UpdateInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return apperr.NotFound("project not found")
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.ShortDescription != nil {
		p.ShortDescription = *in.ShortDescription
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	m.rows[id] = p
	return nil
}

func (m *memProjects) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return apperr.NotFound("project not found")
	}
	p.Status = status
	m.rows[id] = p
	return nil
}

func (m *memProjects) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func (m *memProjects) List(_ context.Context, f domain.ListFilter) ([]domain.Summary, int, error) {
	all, _ := m.ListByOwner(context.Background(), "")
	total := len(all)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)
	return all[start:end], total, nil
}

func (m *memProjects) ListByOwner(_ context.Context, owner string) ([]domain.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Summary{}
	for _, p := range m.rows {
		if owner != "" && p.OwnerID != owner {
			continue
		}
		out = append(out, domain.Summary{ID: p.ID, Title: p.Title, Status: p.Status, Tags: p.Skills})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *memProjects) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memImages struct {
	mu        sync.Mutex
	rows      []domain.Image
	deleteErr error
}

func (m *memImages) Create(_ context.Context, img *domain.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	img.CreatedAt, img.UpdatedAt = now, now
	m.rows = append(m.rows, *img)
	return nil
}

func (m *memImages) DeleteMany(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.rows[:0]
	for _, r := range m.rows {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *memImages) ListByProject(_ context.Context, projectID string) ([]domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Image{}
	for _, r := range m.rows {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memCatalog struct{}

func (memCatalog) FindCategory(_ context.Context, id string) (*catalog.Category, error) {
	if id != catRobotics {
		return nil, apperr.NotFound("category %s not found", id)
	}
	return &catalog.Category{ID: catRobotics, Name: "Robotics"}, nil
}

func (memCatalog) FindSkills(_ context.Context, ids []string) ([]catalog.Skill, error) {
	known := map[string]string{skillGo: "go", skillSQL: "sql"}
	var out []catalog.Skill
	for _, id := range ids {
		if name, ok := known[id]; ok {
			out = append(out, catalog.Skill{ID: id, Name: name})
		}
	}
	return out, nil
}

// flakyFiles fails the n-th Move (1-based) and otherwise delegates to a real store.
type flakyFiles struct {
	*files.Store
	failMoveAt int
	moves      int
}

func (f *flakyFiles) Move(src, destRel string) error {
	f.moves++
	if f.moves == f.failMoveAt {
		return errors.New("no space left on device")
	}
	return f.Store.Move(src, destRel)
}

type fixture struct {
	svc      *ProjectService
	projects *memProjects
	images   *memImages
	files    *flakyFiles
	metrics  *Metrics
	reg      *prometheus.Registry
	staging  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := files.New(filepath.Join(t.TempDir(), "public"))
	require.NoError(t, err)

	fx := &fixture{
		projects: newMemProjects(),
		images:   &memImages{},
		files:    &flakyFiles{Store: store},
		reg:      prometheus.NewRegistry(),
		staging:  t.TempDir(),
	}
	fx.metrics = NewMetrics(fx.reg)
	fx.svc = NewProjectService(fx.projects, fx.images, memCatalog{}, fx.files, fx.metrics)
	return fx
}

func (fx *fixture) stage(t *testing.T, names ...string) []uploads.StagedFile {
	t.Helper()
	out := make([]uploads.StagedFile, 0, len(names))
	for _, n := range names {
		p := filepath.Join(fx.staging, n)
		require.NoError(t, os.WriteFile(p, []byte("\x89PNG\r\n\x1a\n"+n), 0o644))
		out = append(out, uploads.StagedFile{OriginalName: n, Filename: n, StagedPath: p, ContentType: "image/png"})
	}
	return out
}

func validInput() domain.CreateInput {
	return domain.CreateInput{
		Title:            "Line follower",
		CategoryID:       catRobotics,
		ShortDescription: "A small robot that follows a black line",
		SkillIDs:         []string{skillGo, skillSQL},
	}
}
