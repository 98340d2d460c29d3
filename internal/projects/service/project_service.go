package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/internal/apperr"
	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/logging"
	"github.com/campushub/campushub-backend/internal/projects/domain"
	"github.com/campushub/campushub-backend/internal/rollback"
	"github.com/campushub/campushub-backend/internal/uploads"
)

// ProjectStore persists projects.
type ProjectStore interface {
	Create(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, id string) (*domain.Project, error)
	Update(ctx context.Context, id string, in domain.UpdateInput) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, f domain.ListFilter) ([]domain.Summary, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Summary, error)
}

// ImageStore persists image records.
type ImageStore interface {
	Create(ctx context.Context, img *domain.Image) error
	DeleteMany(ctx context.Context, ids []string) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Image, error)
}

// FileStore places files below the public directory. Paths are relative to it.
type FileStore interface {
	EnsureDir(rel string) error
	Move(src, destRel string) error
	Remove(rel string) error
	RemoveDir(rel string) error
}

const fallbackStoreMessage = "failed to store project files"

// ProjectService handles project-related business logic
type ProjectService struct {
	projects ProjectStore
	images   ImageStore
	resolver *Resolver
	files    FileStore
	metrics  *Metrics
	newID    func() string
}

// NewProjectService creates a new project service
func NewProjectService(projects ProjectStore, images ImageStore, c Catalog, files FileStore, m *Metrics) *ProjectService {
	return &ProjectService{
		projects: projects,
		images:   images,
		resolver: NewResolver(c),
		files:    files,
		metrics:  m,
		newID:    uuid.NewString,
	}
}

// ProjectDir is the directory of a project relative to the public directory.
func ProjectDir(projectID string) string {
	return path.Join("projects", projectID)
}

// Create resolves references, inserts the project and moves every staged file
// into the project directory with one image record per file. If anything
// fails after the insert, every completed step is compensated newest-first
// and the caller gets a Storage error.
func (s *ProjectService) Create(ctx context.Context, ownerID string, in domain.CreateInput, files []uploads.StagedFile) (*ProjectView, error) {
	start := time.Now()
	defer func() { s.metrics.CreationDuration.Observe(time.Since(start).Seconds()) }()

	category, err := s.resolver.ResolveCategory(ctx, in.CategoryID)
	if err != nil {
		s.metrics.Creations.WithLabelValues("rejected").Inc()
		return nil, err
	}
	skills, err := s.resolver.ResolveSkills(ctx, in.SkillIDs)
	if err != nil {
		s.metrics.Creations.WithLabelValues("rejected").Inc()
		return nil, err
	}

	p := &domain.Project{
		ID:               s.newID(),
		Title:            in.Title,
		Category:         category.Ref(),
		ShortDescription: in.ShortDescription,
		FullReadme:       in.FullReadme,
		Deadline:         in.Deadline,
		OwnerID:          ownerID,
		Status:           domain.StatusPlanned,
		Skills:           catalog.SkillRefs(skills),
	}
	if err := s.projects.Create(ctx, p); err != nil {
		outcome := "rejected"
		if errors.Is(err, apperr.ErrConflict) {
			outcome = "conflict"
		}
		s.metrics.Creations.WithLabelValues(outcome).Inc()
		return nil, err
	}

	undo := rollback.New()
	undo.Push("delete_project", func(ctx context.Context) error {
		_, err := s.projects.Delete(ctx, p.ID)
		return err
	})

	images, err := s.storeImages(ctx, p.ID, files, undo, true)
	if err != nil {
		s.unwind(ctx, p.ID, undo)
		s.metrics.Creations.WithLabelValues("rolled_back").Inc()
		return nil, storageError(err)
	}
	undo.Commit()

	s.metrics.Creations.WithLabelValues("created").Inc()
	logging.FromContext(ctx).Info("project created",
		zap.String("project_id", p.ID),
		zap.String("owner_id", ownerID),
		zap.Int("images", len(images)),
	)

	view := ToView(p, images)
	return &view, nil
}

// storeImages moves files into the project directory in input order and
// records an image for each one. Every completed step pushes its undo.
// ownDir controls whether the directory itself is removed on rollback.
func (s *ProjectService) storeImages(ctx context.Context, projectID string, files []uploads.StagedFile, undo *rollback.Stack, ownDir bool) ([]domain.Image, error) {
	images := make([]domain.Image, 0, len(files))
	if len(files) == 0 && !ownDir {
		return images, nil
	}

	dir := ProjectDir(projectID)
	if err := s.files.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create project directory: %w", err)
	}
	if ownDir {
		undo.Push("remove_dir", func(context.Context) error {
			return s.files.RemoveDir(dir)
		})
	}

	for _, f := range files {
		rel := path.Join(dir, f.Filename)
		if err := s.files.Move(f.StagedPath, rel); err != nil {
			return nil, fmt.Errorf("move %s: %w", f.OriginalName, err)
		}
		undo.Push("remove_file", func(context.Context) error {
			return s.files.Remove(rel)
		})

		img := &domain.Image{ID: s.newID(), Path: rel, ProjectID: projectID}
		if err := s.images.Create(ctx, img); err != nil {
			return nil, err
		}
		id := img.ID
		undo.Push("delete_image", func(ctx context.Context) error {
			return s.images.DeleteMany(ctx, []string{id})
		})
		images = append(images, *img)
	}
	return images, nil
}

// unwind runs compensations detached from request cancellation. Failures are
// logged and counted, never returned.
func (s *ProjectService) unwind(ctx context.Context, projectID string, undo *rollback.Stack) {
	log := logging.FromContext(ctx)
	steps := undo.Names()
	failures := undo.Unwind(context.WithoutCancel(ctx))
	for _, f := range failures {
		s.metrics.RollbackFailures.WithLabelValues(f.Step).Inc()
		log.Warn("rollback step failed",
			zap.String("project_id", projectID),
			zap.String("step", f.Step),
			zap.Error(f.Err),
		)
	}
	log.Info("project creation rolled back",
		zap.String("project_id", projectID),
		zap.Strings("steps", steps),
		zap.Int("failed_steps", len(failures)),
	)
}

func storageError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind == apperr.KindStorage {
		return ae
	}
	msg := err.Error()
	if msg == "" {
		msg = fallbackStoreMessage
	}
	return apperr.Storage(msg, err)
}

// Get returns a project with its images.
func (s *ProjectService) Get(ctx context.Context, id string) (*ProjectView, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.images.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	view := ToView(p, images)
	return &view, nil
}

func (s *ProjectService) List(ctx context.Context, f domain.ListFilter) (PageView, error) {
	items, total, err := s.projects.List(ctx, f)
	if err != nil {
		return PageView{}, err
	}
	return toPageView(domain.Page{
		Items:      items,
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		TotalPages: totalPages(total, f.Limit),
	}), nil
}

func (s *ProjectService) ListByOwner(ctx context.Context, ownerID string) ([]SummaryView, error) {
	items, err := s.projects.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toSummaryViews(items), nil
}

// UpdateStatus changes the lifecycle status of a project owned by userID.
func (s *ProjectService) UpdateStatus(ctx context.Context, userID, id string, status domain.Status) (*ProjectView, error) {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.projects.UpdateStatus(ctx, p.ID, status); err != nil {
		return nil, err
	}
	return s.Get(ctx, p.ID)
}

// Update applies field changes and attaches extra staged images. New images
// are stored first under their own rollback stack; if the field update then
// fails they are removed again.
func (s *ProjectService) Update(ctx context.Context, userID, id string, in domain.UpdateInput, files []uploads.StagedFile) (*ProjectView, error) {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if _, err := s.resolver.ResolveCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}
	if in.SkillIDs != nil {
		skills, err := s.resolver.ResolveSkills(ctx, in.SkillIDs)
		if err != nil {
			return nil, err
		}
		in.SkillIDs = refIDs(catalog.SkillRefs(skills))
	}

	undo := rollback.New()
	if _, err := s.storeImages(ctx, p.ID, files, undo, false); err != nil {
		s.unwind(ctx, p.ID, undo)
		return nil, storageError(err)
	}

	if err := s.projects.Update(ctx, p.ID, in); err != nil {
		s.unwind(ctx, p.ID, undo)
		return nil, err
	}
	undo.Commit()

	return s.Get(ctx, p.ID)
}

// Delete removes a project owned by userID together with its image directory.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	ok, err := s.projects.Delete(ctx, p.ID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("project not found")
	}
	if err := s.files.RemoveDir(ProjectDir(p.ID)); err != nil {
		logging.FromContext(ctx).Warn("remove project directory",
			zap.String("project_id", p.ID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *ProjectService) owned(ctx context.Context, userID, id string) (*domain.Project, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != userID {
		return nil, apperr.Forbidden("forbidden")
	}
	return p, nil
}

func refIDs(refs []catalog.Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}
