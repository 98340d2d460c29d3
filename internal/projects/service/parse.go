package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/campushub/campushub-backend/internal/apperr"
	"github.com/campushub/campushub-backend/internal/projects/domain"
	"github.com/campushub/campushub-backend/internal/validation"
)

const (
	defaultLimit = 10
	maxLimit     = 100

	// maxPage keeps (page-1)*limit within int.
	maxPage = math.MaxInt / maxLimit
)

// CreateRequest is the raw create payload as assembled from a multipart form.
type CreateRequest struct {
	Title            string   `json:"title" validate:"required,min=3,max=30"`
	CategoryID       string   `json:"categoryId" validate:"required,uuid"`
	ShortDescription string   `json:"shortDescription" validate:"required,min=10,max=500"`
	FullReadme       string   `json:"fullReadme" validate:"max=10000"`
	Deadline         string   `json:"deadline"`
	Skills           []string `json:"skills" validate:"dive,uuid"`
}

// ParseCreate validates req and converts it into a CreateInput.
func ParseCreate(req CreateRequest) (domain.CreateInput, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.ShortDescription = strings.TrimSpace(req.ShortDescription)
	req.CategoryID = strings.TrimSpace(req.CategoryID)

	if err := validation.Struct(req); err != nil {
		return domain.CreateInput{}, err
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return domain.CreateInput{}, err
	}
	return domain.CreateInput{
		Title:            req.Title,
		CategoryID:       req.CategoryID,
		ShortDescription: req.ShortDescription,
		FullReadme:       req.FullReadme,
		Deadline:         deadline,
		SkillIDs:         req.Skills,
	}, nil
}

// UpdateRequest carries optional changes; absent fields stay nil.
type UpdateRequest struct {
	Title            *string  `json:"title" validate:"omitempty,min=3,max=30"`
	CategoryID       *string  `json:"categoryId" validate:"omitempty,uuid"`
	ShortDescription *string  `json:"shortDescription" validate:"omitempty,min=10,max=500"`
	FullReadme       *string  `json:"fullReadme" validate:"omitempty,max=10000"`
	Deadline         *string  `json:"deadline"`
	Skills           []string `json:"skills" validate:"omitempty,dive,uuid"`
	Status           *string  `json:"status"`
}

func ParseUpdate(req UpdateRequest) (domain.UpdateInput, error) {
	if err := validation.Struct(req); err != nil {
		return domain.UpdateInput{}, err
	}

	in := domain.UpdateInput{
		Title:            trimmed(req.Title),
		CategoryID:       trimmed(req.CategoryID),
		ShortDescription: trimmed(req.ShortDescription),
		FullReadme:       req.FullReadme,
		SkillIDs:         req.Skills,
	}
	if req.Deadline != nil {
		d, err := parseDeadline(*req.Deadline)
		if err != nil {
			return domain.UpdateInput{}, err
		}
		in.Deadline = d
	}
	if req.Status != nil {
		st, err := ParseStatus(*req.Status)
		if err != nil {
			return domain.UpdateInput{}, err
		}
		in.Status = &st
	}
	return in, nil
}

// ParseStatus accepts any letter case of a known status.
func ParseStatus(raw string) (domain.Status, error) {
	st, ok := domain.ParseStatus(raw)
	if !ok {
		return "", apperr.Validation("invalid status: "+raw, map[string]string{"status": "unknown status"})
	}
	return st, nil
}

// ListQuery is the raw query string of the list endpoint.
type ListQuery struct {
	Search   string
	Category string
	Status   string
	Skills   []string
	Page     string
	Limit    string
}

// ParseListQuery normalises paging (page clamped to 1..maxPage, limit
// clamped to 1..100, default 10) and validates filters.
func ParseListQuery(q ListQuery) (domain.ListFilter, error) {
	f := domain.ListFilter{
		Search: strings.TrimSpace(q.Search),
		Page:   atoiOr(q.Page, 1),
		Limit:  atoiOr(q.Limit, defaultLimit),
	}
	f.Page = max(1, min(maxPage, f.Page))
	f.Limit = max(1, min(maxLimit, f.Limit))

	if c := strings.TrimSpace(q.Category); c != "" {
		if !validation.UUID(c) {
			return domain.ListFilter{}, apperr.Validation("invalid category id", map[string]string{"category": "must be a valid id"})
		}
		f.Category = c
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			return domain.ListFilter{}, err
		}
		f.Status = st
	}
	for _, raw := range q.Skills {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if !validation.UUID(id) {
				return domain.ListFilter{}, apperr.Validation("invalid skill id", map[string]string{"skills": id + " is not a valid id"})
			}
			f.SkillIDs = append(f.SkillIDs, id)
		}
	}
	f.SkillIDs = dedupe(f.SkillIDs)
	return f, nil
}

// ParseID rejects malformed project ids before they reach the store.
func ParseID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !validation.UUID(id) {
		return "", apperr.Validation("invalid project id", nil)
	}
	return id, nil
}

func totalPages(total, limit int) int {
	return max(1, int(math.Ceil(float64(total)/float64(limit))))
}

func parseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Validation("invalid deadline", map[string]string{
		"deadline": "must be an RFC3339 timestamp or YYYY-MM-DD date",
	})
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n == 0 {
		return def
	}
	return n
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
