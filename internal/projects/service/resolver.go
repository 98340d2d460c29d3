package service

import (
	"context"
	"strings"

	"github.com/campushub/campushub-backend/internal/apperr"
	catalog "github.com/campushub/campushub-backend/internal/catalog/domain"
)

// Catalog looks up reference entities by id.
type Catalog interface {
	FindCategory(ctx context.Context, id string) (*catalog.Category, error)
	FindSkills(ctx context.Context, ids []string) ([]catalog.Skill, error)
}

// Resolver checks that referenced categories and skills exist.
type Resolver struct {
	catalog Catalog
}

func NewResolver(c Catalog) *Resolver {
	return &Resolver{catalog: c}
}

func (r *Resolver) ResolveCategory(ctx context.Context, id string) (*catalog.Category, error) {
	return r.catalog.FindCategory(ctx, id)
}

// ResolveSkills returns the skills for ids in request order, failing with
// NotFound that names every id that did not resolve.
func (r *Resolver) ResolveSkills(ctx context.Context, ids []string) ([]catalog.Skill, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []catalog.Skill{}, nil
	}

	found, err := r.catalog.FindSkills(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]catalog.Skill, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}

	out := make([]catalog.Skill, 0, len(ids))
	var missing []string
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, s)
	}
	if len(missing) > 0 {
		return nil, apperr.NotFound("skills not found: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
