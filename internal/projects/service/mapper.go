package service

import (
	"time"

	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
	"github.com/campushub/campushub-backend/internal/projects/domain"
)

type ImageView struct {
	ID        string    `json:"id"`
	ImagePath string    `json:"image_path"`
	ProjectID string    `json:"projectId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProjectView is the external representation of a project with its images.
type ProjectView struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Category         catalog.Ref   `json:"category"`
	ShortDescription string        `json:"shortDescription"`
	FullReadme       string        `json:"fullReadme"`
	Deadline         *time.Time    `json:"deadline"`
	OwnerID          string        `json:"ownerId"`
	Status           domain.Status `json:"status"`
	Skills           []catalog.Ref `json:"skills"`
	Images           []ImageView   `json:"images"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

type SummaryView struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	ShortDescription string        `json:"shortDescription"`
	Tags             []catalog.Ref `json:"tags"`
	Deadline         *time.Time    `json:"deadline"`
	Status           domain.Status `json:"status"`
}

type PageView struct {
	Items      []SummaryView `json:"items"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
}

// ToView maps a project and its images. It does not retain or modify its inputs.
func ToView(p *domain.Project, images []domain.Image) ProjectView {
	skills := make([]catalog.Ref, len(p.Skills))
	copy(skills, p.Skills)

	imgs := make([]ImageView, 0, len(images))
	for _, img := range images {
		imgs = append(imgs, ImageView{
			ID:        img.ID,
			ImagePath: img.Path,
			ProjectID: img.ProjectID,
			CreatedAt: img.CreatedAt,
			UpdatedAt: img.UpdatedAt,
		})
	}

	var deadline *time.Time
	if p.Deadline != nil {
		d := *p.Deadline
		deadline = &d
	}

	return ProjectView{
		ID:               p.ID,
		Title:            p.Title,
		Category:         p.Category,
		ShortDescription: p.ShortDescription,
		FullReadme:       p.FullReadme,
		Deadline:         deadline,
		OwnerID:          p.OwnerID,
		Status:           p.Status,
		Skills:           skills,
		Images:           imgs,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toSummaryViews(items []domain.Summary) []SummaryView {
	out := make([]SummaryView, 0, len(items))
	for _, s := range items {
		tags := s.Tags
		if tags == nil {
			tags = []catalog.Ref{}
		}
		out = append(out, SummaryView{
			ID:               s.ID,
			Title:            s.Title,
			ShortDescription: s.ShortDescription,
			Tags:             tags,
			Deadline:         s.Deadline,
			Status:           s.Status,
		})
	}
	return out
}

func toPageView(p domain.Page) PageView {
	return PageView{
		Items:      toSummaryViews(p.Items),
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}
