package domain

import (
	"strings"
	"time"

	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
)

type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

var Statuses = []Status{StatusPlanned, StatusInProgress, StatusCompleted, StatusArchived}

// ParseStatus matches s against the known statuses case-insensitively.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// Project is a showcased unit of work owned by a user.
type Project struct {
	ID               string
	Title            string
	Category         catalog.Ref
	ShortDescription string
	FullReadme       string
	Deadline         *time.Time
	OwnerID          string
	Status           Status
	Skills           []catalog.Ref
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Image is a file stored below the public directory that belongs to one project.
type Image struct {
	ID        string
	Path      string
	ProjectID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput holds validated fields for a new project.
type CreateInput struct {
	Title            string
	CategoryID       string
	ShortDescription string
	FullReadme       string
	Deadline         *time.Time
	SkillIDs         []string
}

// UpdateInput carries optional field changes; nil means unchanged.
type UpdateInput struct {
	Title            *string
	CategoryID       *string
	ShortDescription *string
	FullReadme       *string
	Deadline         *time.Time
	SkillIDs         []string
	Status           *Status
}

// ListFilter selects a page of projects.
type ListFilter struct {
	Search   string
	Category string
	Status   Status
	SkillIDs []string
	Page     int
	Limit    int
}

func (f ListFilter) Offset() int { return (f.Page - 1) * f.Limit }

// Summary is the list-view projection of a project.
type Summary struct {
	ID               string
	Title            string
	ShortDescription string
	Tags             []catalog.Ref
	Deadline         *time.Time
	Status           Status
}

type Page struct {
	Items      []Summary
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
