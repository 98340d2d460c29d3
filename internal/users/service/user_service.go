package service

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/internal/apperr"
	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/logging"
	"github.com/campushub/campushub-backend/internal/rollback"
	"github.com/campushub/campushub-backend/internal/uploads"
	"github.com/campushub/campushub-backend/internal/users/domain"
	"github.com/campushub/campushub-backend/internal/validation"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type UserStore interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, f domain.ListFilter) ([]domain.User, error)
	Update(ctx context.Context, id string, in domain.UpdateInput) error
}

type SkillFinder interface {
	FindSkills(ctx context.Context, ids []string) ([]catalog.Skill, error)
}

type FileStore interface {
	EnsureDir(rel string) error
	Move(src, destRel string) error
	Remove(rel string) error
}

// UserView is the public profile representation.
type UserView struct {
	ID           string        `json:"id"`
	PCNumber     *int64        `json:"pc_number"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Mail         *string       `json:"mail"`
	MailVerified bool          `json:"mail_verified"`
	Description  string        `json:"description"`
	Department   string        `json:"department"`
	Class        string        `json:"class"`
	PhotoPath    string        `json:"photo_path"`
	Role         string        `json:"role"`
	GithubLink   string        `json:"github_link"`
	LinkedinLink string        `json:"linkedin_link"`
	BannerLink   string        `json:"banner_link"`
	Skills       []catalog.Ref `json:"skills"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func ToView(u *domain.User) UserView {
	skills := u.Skills
	if skills == nil {
		skills = []catalog.Ref{}
	}
	return UserView{
		ID:           u.ID,
		PCNumber:     u.PCNumber,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Mail:         u.Mail,
		MailVerified: u.MailVerified,
		Description:  u.Description,
		Department:   u.Department,
		Class:        u.Class,
		PhotoPath:    u.PhotoPath,
		Role:         u.Role,
		GithubLink:   u.GithubLink,
		LinkedinLink: u.LinkedinLink,
		BannerLink:   u.BannerLink,
		Skills:       skills,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type UserService struct {
	users  UserStore
	skills SkillFinder
	files  FileStore
}

func NewUserService(users UserStore, skills SkillFinder, files FileStore) *UserService {
	return &UserService{users: users, skills: skills, files: files}
}

func (s *UserService) Get(ctx context.Context, id string) (*UserView, error) {
	if !validation.UUID(id) {
		return nil, apperr.Validation("invalid user id", nil)
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := ToView(u)
	return &v, nil
}

func (s *UserService) List(ctx context.Context, f domain.ListFilter) ([]UserView, error) {
	users, err := s.users.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, ToView(&users[i]))
	}
	return out, nil
}

// UpdateMe applies profile changes. A new photo is moved under users/<id>/
// and the previous one is deleted once the update is stored.
func (s *UserService) UpdateMe(ctx context.Context, userID string, in domain.UpdateInput, photo *uploads.StagedFile) (*UserView, error) {
	current, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.SkillIDs != nil {
		found, err := s.skills.FindSkills(ctx, in.SkillIDs)
		if err != nil {
			return nil, err
		}
		if len(found) != len(in.SkillIDs) {
			return nil, apperr.Validation("One or more skill IDs are invalid", map[string]string{"skills": "unknown skill id"})
		}
	}

	undo := rollback.New()
	if photo != nil {
		dir := path.Join("users", userID)
		rel := path.Join(dir, photo.Filename)
		if err := s.files.EnsureDir(dir); err != nil {
			return nil, apperr.Storage("failed to store photo", err)
		}
		if err := s.files.Move(photo.StagedPath, rel); err != nil {
			return nil, apperr.Storage("failed to store photo", err)
		}
		undo.Push("remove_photo", func(context.Context) error { return s.files.Remove(rel) })
		in.PhotoPath = &rel
	}

	if err := s.users.Update(ctx, userID, in); err != nil {
		if failures := undo.Unwind(context.WithoutCancel(ctx)); len(failures) > 0 {
			logging.FromContext(ctx).Warn("photo rollback failed", zap.Error(failures[0].Err))
		}
		return nil, err
	}
	undo.Commit()

	if photo != nil && current.PhotoPath != "" && current.PhotoPath != *in.PhotoPath {
		if err := s.files.Remove(current.PhotoPath); err != nil {
			logging.FromContext(ctx).Warn("remove previous photo",
				zap.String("user_id", userID),
				zap.String("path", current.PhotoPath),
				zap.Error(err),
			)
		}
	}

	return s.Get(ctx, userID)
}

// UpdateMeRequest is the raw profile update payload.
type UpdateMeRequest struct {
	FirstName    *string  `json:"first_name" validate:"omitempty,max=100"`
	LastName     *string  `json:"last_name" validate:"omitempty,max=100"`
	Description  *string  `json:"description" validate:"omitempty,max=2000"`
	Department   *string  `json:"department" validate:"omitempty,max=100"`
	Class        *string  `json:"class" validate:"omitempty,max=50"`
	GithubLink   *string  `json:"github_link" validate:"omitempty,url"`
	LinkedinLink *string  `json:"linkedin_link" validate:"omitempty,url"`
	BannerLink   *string  `json:"banner_link" validate:"omitempty,max=500"`
	Skills       []string `json:"skills" validate:"omitempty,max=50,dive,uuid"`
}

func ParseUpdateMe(req UpdateMeRequest) (domain.UpdateInput, error) {
	if err := validation.Struct(req); err != nil {
		return domain.UpdateInput{}, err
	}
	in := domain.UpdateInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Description:  req.Description,
		Department:   req.Department,
		Class:        req.Class,
		GithubLink:   req.GithubLink,
		LinkedinLink: req.LinkedinLink,
		BannerLink:   req.BannerLink,
	}
	if req.Skills != nil {
		in.SkillIDs = uniq(req.Skills)
	}
	return in, nil
}

type ListQuery struct {
	Department   string
	Class        string
	PCID         string
	NameContains string
	Offset       string
	Limit        string
}

func ParseListQuery(q ListQuery) (domain.ListFilter, error) {
	f := domain.ListFilter{
		Department:   strings.TrimSpace(q.Department),
		ClassPrefix:  strings.TrimSpace(q.Class),
		NameContains: strings.TrimSpace(q.NameContains),
		Limit:        defaultListLimit,
	}
	if v := strings.TrimSpace(q.PCID); v != "" {
		pc, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return domain.ListFilter{}, apperr.Validation("invalid pc_id", map[string]string{"pc_id": "must be a number"})
		}
		f.PCNumber = &pc
	}
	if v := strings.TrimSpace(q.Offset); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return domain.ListFilter{}, apperr.Validation("invalid offset", map[string]string{"offset": "must be a non-negative integer"})
		}
		f.Offset = n
	}
	if v := strings.TrimSpace(q.Limit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			return domain.ListFilter{}, apperr.Validation("invalid limit", map[string]string{
				"limit": fmt.Sprintf("must be between 1 and %d", maxListLimit),
			})
		}
		f.Limit = n
	}
	return f, nil
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
