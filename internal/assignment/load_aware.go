package assignment

import (
	"context"
	"fmt"

	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

type loadAware struct {
	store Store
}

// Suggest picks the least loaded officer mapped to category, falling back to the
// least loaded officer system-wide. Ties go to the earliest candidate.
func (p *loadAware) Suggest(ctx context.Context, category string) (*Suggestion, error) {
	pool, err := categoryPool(ctx, p.store, category)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		pool, err = allOfficers(ctx, p.store)
		if err != nil {
			return nil, err
		}
	}
	if len(pool) == 0 {
		return nil, nil
	}

	loads := make(map[string]int64, len(pool))
	var best *Suggestion
	for _, c := range pool {
		load, ok := loads[c.officer.ID]
		if !ok {
			load, err = p.store.CountGrievances(ctx, storage.GrievanceFilter{
				AssignedOfficerID: c.officer.ID,
				Statuses:          models.OpenStatuses,
			})
			if err != nil {
				return nil, fmt.Errorf("count open grievances for %s: %w", c.officer.ID, err)
			}
			loads[c.officer.ID] = load
		}
		if best == nil || load < best.OpenLoad {
			best = &Suggestion{Officer: c.officer, DepartmentID: c.departmentID, OpenLoad: load}
		}
	}
	return best, nil
}
