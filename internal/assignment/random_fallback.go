package assignment

import (
	"context"
	"fmt"
)

type randomFallback struct {
	store Store
	rnd   Rand
}

// Suggest picks a random department mapped to category and a random officer in
// its entry; otherwise a random officer system-wide.
func (p *randomFallback) Suggest(ctx context.Context, category string) (*Suggestion, error) {
	departments, err := p.store.DepartmentsForCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("load departments for %s: %w", category, err)
	}

	if len(departments) > 0 {
		d := departments[p.rnd.IntN(len(departments))]
		if entry := d.Assignment(category); entry != nil && len(entry.OfficerIDs) > 0 {
			officerID := entry.OfficerIDs[p.rnd.IntN(len(entry.OfficerIDs))]
			u, err := resolveOfficer(ctx, p.store, officerID)
			if err != nil {
				return nil, err
			}
			if u != nil {
				deptID := d.ID
				return &Suggestion{Officer: *u, DepartmentID: &deptID}, nil
			}
		}
	}

	pool, err := allOfficers(ctx, p.store)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}
	c := pool[p.rnd.IntN(len(pool))]
	return &Suggestion{Officer: c.officer, DepartmentID: c.departmentID}, nil
}
