package domain

import "time"

// Category groups projects; projects reference exactly one.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Skill is a tag shared by projects, offers and user profiles.
type Skill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ref is the compact {id, name} form embedded in other resources.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c Category) Ref() Ref { return Ref{ID: c.ID, Name: c.Name} }

func (s Skill) Ref() Ref { return Ref{ID: s.ID, Name: s.Name} }

// SkillRefs converts skills to their compact form, never returning nil.
func SkillRefs(skills []Skill) []Ref {
	out := make([]Ref, 0, len(skills))
	for _, s := range skills {
		out = append(out, s.Ref())
	}
	return out
}

// DefaultCategories and DefaultSkills are inserted by the seed command.
var DefaultCategories = []string{
	"Web", "Mobile", "Data Science", "Machine Learning", "Embedded", "Game Development", "Research",
}

var DefaultSkills = []string{
	"Go", "TypeScript", "Angular", "React", "Node.js", "Python", "Java", "C++",
	"PostgreSQL", "MongoDB", "Docker", "Kubernetes", "UI/UX Design", "Figma",
}
