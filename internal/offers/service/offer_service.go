package service

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/internal/apperr"
	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/logging"
	"github.com/campushub/campushub-backend/internal/offers/domain"
	"github.com/campushub/campushub-backend/internal/rollback"
	"github.com/campushub/campushub-backend/internal/uploads"
)

type OfferStore interface {
	Create(ctx context.Context, o *domain.Offer) error
	Get(ctx context.Context, id string) (*domain.Offer, error)
	Update(ctx context.Context, id string, in domain.UpdateInput) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, f domain.ListFilter) ([]domain.Offer, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Offer, error)
}

type SkillFinder interface {
	FindSkills(ctx context.Context, ids []string) ([]catalog.Skill, error)
}

type FileStore interface {
	EnsureDir(rel string) error
	Move(src, destRel string) error
	Remove(rel string) error
	RemoveDir(rel string) error
}

type OfferView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	PhoneNumber string        `json:"phone_number"`
	Price       *float64      `json:"price"`
	PhotoPath   string        `json:"photo_path"`
	OwnerID     string        `json:"ownerId"`
	Skills      []catalog.Ref `json:"skills"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func ToView(o *domain.Offer) OfferView {
	skills := o.Skills
	if skills == nil {
		skills = []catalog.Ref{}
	}
	return OfferView{
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		PhoneNumber: o.PhoneNumber,
		Price:       o.Price,
		PhotoPath:   o.PhotoPath,
		OwnerID:     o.OwnerID,
		Skills:      skills,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toViews(offers []domain.Offer) []OfferView {
	out := make([]OfferView, 0, len(offers))
	for i := range offers {
		out = append(out, ToView(&offers[i]))
	}
	return out
}

type OfferService struct {
	offers OfferStore
	skills SkillFinder
	files  FileStore
	newID  func() string
}

func NewOfferService(offers OfferStore, skills SkillFinder, files FileStore) *OfferService {
	return &OfferService{offers: offers, skills: skills, files: files, newID: uuid.NewString}
}

func OfferDir(offerID string) string {
	return path.Join("offers", offerID)
}

// Create stores the offer and, when given, moves its photo under offers/<id>/.
// A failed photo step removes the offer again.
func (s *OfferService) Create(ctx context.Context, ownerID string, in domain.CreateInput, photo *uploads.StagedFile) (*OfferView, error) {
	skills, err := s.resolveSkills(ctx, in.SkillIDs)
	if err != nil {
		return nil, err
	}

	o := &domain.Offer{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		PhoneNumber: in.PhoneNumber,
		Price:       in.Price,
		OwnerID:     ownerID,
		Skills:      skills,
	}
	if err := s.offers.Create(ctx, o); err != nil {
		return nil, err
	}

	if photo != nil {
		undo := rollback.New()
		undo.Push("delete_offer", func(ctx context.Context) error {
			_, err := s.offers.Delete(ctx, o.ID)
			return err
		})

		rel, err := s.placePhoto(o.ID, photo, undo, true)
		if err == nil {
			err = s.offers.Update(ctx, o.ID, domain.UpdateInput{PhotoPath: &rel})
		}
		if err != nil {
			s.unwind(ctx, o.ID, undo)
			return nil, apperr.Storage("failed to store offer photo", err)
		}
		undo.Commit()
		o.PhotoPath = rel
	}

	v := ToView(o)
	return &v, nil
}

// Update changes an offer owned by userID. A new photo replaces the old one,
// which is deleted after the row is updated.
func (s *OfferService) Update(ctx context.Context, userID, id string, in domain.UpdateInput, photo *uploads.StagedFile) (*OfferView, error) {
	current, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.SkillIDs != nil {
		skills, err := s.resolveSkills(ctx, in.SkillIDs)
		if err != nil {
			return nil, err
		}
		in.SkillIDs = make([]string, len(skills))
		for i, sk := range skills {
			in.SkillIDs[i] = sk.ID
		}
	}

	undo := rollback.New()
	if photo != nil {
		rel, err := s.placePhoto(current.ID, photo, undo, false)
		if err != nil {
			s.unwind(ctx, current.ID, undo)
			return nil, apperr.Storage("failed to store offer photo", err)
		}
		in.PhotoPath = &rel
	}

	if err := s.offers.Update(ctx, current.ID, in); err != nil {
		s.unwind(ctx, current.ID, undo)
		return nil, err
	}
	undo.Commit()

	if in.PhotoPath != nil && current.PhotoPath != "" && current.PhotoPath != *in.PhotoPath {
		if err := s.files.Remove(current.PhotoPath); err != nil {
			logging.FromContext(ctx).Warn("remove previous offer photo",
				zap.String("offer_id", current.ID),
				zap.Error(err),
			)
		}
	}

	o, err := s.offers.Get(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	v := ToView(o)
	return &v, nil
}

// Delete removes an offer owned by userID and returns what was deleted.
func (s *OfferService) Delete(ctx context.Context, userID, id string) (*OfferView, error) {
	o, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.offers.Delete(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("offer not found")
	}
	if err := s.files.RemoveDir(OfferDir(o.ID)); err != nil {
		logging.FromContext(ctx).Warn("remove offer directory", zap.String("offer_id", o.ID), zap.Error(err))
	}
	v := ToView(o)
	return &v, nil
}

func (s *OfferService) List(ctx context.Context, f domain.ListFilter) ([]OfferView, error) {
	offers, err := s.offers.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return toViews(offers), nil
}

func (s *OfferService) ListByOwner(ctx context.Context, ownerID string) ([]OfferView, error) {
	offers, err := s.offers.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toViews(offers), nil
}

func (s *OfferService) placePhoto(offerID string, photo *uploads.StagedFile, undo *rollback.Stack, ownDir bool) (string, error) {
	dir := OfferDir(offerID)
	if err := s.files.EnsureDir(dir); err != nil {
		return "", err
	}
	if ownDir {
		undo.Push("remove_dir", func(context.Context) error { return s.files.RemoveDir(dir) })
	}
	rel := path.Join(dir, photo.Filename)
	if err := s.files.Move(photo.StagedPath, rel); err != nil {
		return "", err
	}
	undo.Push("remove_file", func(context.Context) error { return s.files.Remove(rel) })
	return rel, nil
}

func (s *OfferService) unwind(ctx context.Context, offerID string, undo *rollback.Stack) {
	for _, f := range undo.Unwind(context.WithoutCancel(ctx)) {
		logging.FromContext(ctx).Warn("rollback step failed",
			zap.String("offer_id", offerID),
			zap.String("step", f.Step),
			zap.Error(f.Err),
		)
	}
}

func (s *OfferService) resolveSkills(ctx context.Context, ids []string) ([]catalog.Ref, error) {
	if len(ids) == 0 {
		return []catalog.Ref{}, nil
	}
	found, err := s.skills.FindSkills(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		have := make(map[string]bool, len(found))
		for _, sk := range found {
			have[sk.ID] = true
		}
		var missing []string
		for _, id := range ids {
			if !have[id] {
				missing = append(missing, id)
			}
		}
		return nil, apperr.NotFound("skills not found: %s", strings.Join(missing, ", "))
	}
	return catalog.SkillRefs(found), nil
}

func (s *OfferService) owned(ctx context.Context, userID, id string) (*domain.Offer, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	o, err := s.offers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.OwnerID != userID {
		return nil, apperr.Forbidden("forbidden")
	}
	return o, nil
}
