package service

import (
	"strconv"
	"strings"

	"github.com/campushub/campushub-backend/internal/apperr"
	"github.com/campushub/campushub-backend/internal/offers/domain"
	"github.com/campushub/campushub-backend/internal/validation"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type CreateRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=100"`
	Description string   `json:"description" validate:"required,min=10,max=2000"`
	PhoneNumber string   `json:"phone_number" validate:"required,min=5,max=20"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Skills      []string `json:"skills" validate:"omitempty,max=20,dive,uuid"`
}

func ParseCreate(req CreateRequest) (domain.CreateInput, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if err := validation.Struct(req); err != nil {
		return domain.CreateInput{}, err
	}
	return domain.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		PhoneNumber: req.PhoneNumber,
		Price:       req.Price,
		SkillIDs:    dedupe(req.Skills),
	}, nil
}

type UpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=100"`
	Description *string  `json:"description" validate:"omitempty,min=10,max=2000"`
	PhoneNumber *string  `json:"phone_number" validate:"omitempty,min=5,max=20"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Skills      []string `json:"skills" validate:"omitempty,max=20,dive,uuid"`
}

func ParseUpdate(req UpdateRequest) (domain.UpdateInput, error) {
	if err := validation.Struct(req); err != nil {
		return domain.UpdateInput{}, err
	}
	in := domain.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		PhoneNumber: req.PhoneNumber,
		Price:       req.Price,
	}
	if req.Skills != nil {
		in.SkillIDs = dedupe(req.Skills)
	}
	return in, nil
}

type ListQuery struct {
	Title  string
	Skills []string
	Offset string
	Limit  string
}

func ParseListQuery(q ListQuery) (domain.ListFilter, error) {
	f := domain.ListFilter{Title: strings.TrimSpace(q.Title), Limit: defaultLimit}

	for _, raw := range q.Skills {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id == "" {
				continue
			}
			if !validation.UUID(id) {
				return domain.ListFilter{}, apperr.Validation("invalid skill id", map[string]string{"skills": id + " is not a valid id"})
			}
			f.SkillIDs = append(f.SkillIDs, id)
		}
	}
	f.SkillIDs = dedupe(f.SkillIDs)

	if v := strings.TrimSpace(q.Offset); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return domain.ListFilter{}, apperr.Validation("invalid offset", map[string]string{"offset": "must be a non-negative integer"})
		}
		f.Offset = n
	}
	if v := strings.TrimSpace(q.Limit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return domain.ListFilter{}, apperr.Validation("invalid limit", map[string]string{"limit": "must be a positive integer"})
		}
		f.Limit = min(n, maxLimit)
	}
	return f, nil
}

// ParseID rejects malformed offer ids.
func ParseID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !validation.UUID(id) {
		return "", apperr.Validation("invalid offer id", nil)
	}
	return id, nil
}

func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
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
