package domain

import (
	"time"

	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
)

// Offer is a marketplace listing posted by a user. It is independent of projects.
type Offer struct {
	ID          string
	Title       string
	Description string
	PhoneNumber string
	Price       *float64
	PhotoPath   string
	OwnerID     string
	Skills      []catalog.Ref
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateInput struct {
	Title       string
	Description string
	PhoneNumber string
	Price       *float64
	SkillIDs    []string
}

// UpdateInput holds optional changes; nil means unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	PhoneNumber *string
	Price       *float64
	PhotoPath   *string
	SkillIDs    []string
}

type ListFilter struct {
	Title    string
	SkillIDs []string
	Offset   int
	Limit    int
}
