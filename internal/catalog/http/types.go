package http

import (
	"context"

	"github.com/campushub/campushub-backend/internal/catalog/domain"
)

type lister interface {
	ListSkills(ctx context.Context) ([]domain.Skill, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Handler serves the read-only skill and category lists.
type Handler struct {
	repo lister
}

func New(repo lister) *Handler {
	return &Handler{repo: repo}
}
