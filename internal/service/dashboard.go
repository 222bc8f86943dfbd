package service

import (
	"context"
	"sort"

	"github.com/atinyakov/NoteSync/internal/models"
)

// Lister is the read-only slice of a ResourceService the dashboard needs.
type Lister interface {
	ListAll(ctx context.Context, p models.Principal) ([]models.Resource, error)
}

// DashboardService aggregates every resource kind a principal can reach into
// one feed.
type DashboardService struct {
	sources []Lister
}

// NewDashboardService constructs a DashboardService over the given sources,
// one per resource kind.
func NewDashboardService(sources ...Lister) *DashboardService {
	return &DashboardService{sources: sources}
}

// ListAll returns every resource p owns or has access to across all kinds,
// ordered by UpdatedAt descending. Each kind's set is already de-duplicated,
// and ids never collide across kinds.
func (s *DashboardService) ListAll(ctx context.Context, p models.Principal) ([]models.Resource, error) {
	var all []models.Resource
	for _, src := range s.sources {
		batch, err := src.ListAll(ctx, p)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	return all, nil
}
