// Package assignment picks an officer (and department) for a new grievance.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

// Strategy selects how officers are chosen.
type Strategy string

const (
	// LoadAware picks the candidate with the fewest open grievances.
	LoadAware Strategy = "load_aware"
	// RandomFallback picks at random; used when the embedding path is degraded.
	RandomFallback Strategy = "random_fallback"
)

// Suggestion is the chosen officer and the department the grievance is routed to.
type Suggestion struct {
	Officer      models.User
	DepartmentID *string
	// OpenLoad is the officer's open grievance count at selection time. It is
	// only computed by LoadAware.
	OpenLoad int64
}

// Policy returns nil when no officer can be found.
type Policy interface {
	Suggest(ctx context.Context, category string) (*Suggestion, error)
}

// Store is the read surface the policies need.
type Store interface {
	DepartmentsForCategory(ctx context.Context, category string) ([]models.Department, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindUsers(ctx context.Context, f storage.UserFilter) ([]models.User, error)
	CountGrievances(ctx context.Context, f storage.GrievanceFilter) (int64, error)
}

// Rand is satisfied by *rand.Rand.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// New returns the policy for strategy. A nil rnd uses the process-wide source.
func New(strategy Strategy, store Store, rnd Rand) (Policy, error) {
	if rnd == nil {
		rnd = globalRand{}
	}
	switch strategy {
	case LoadAware:
		return &loadAware{store: store}, nil
	case RandomFallback:
		return &randomFallback{store: store, rnd: rnd}, nil
	default:
		return nil, fmt.Errorf("unknown assignment strategy %q", strategy)
	}
}

type candidate struct {
	officer      models.User
	departmentID *string
}

// resolveOfficer loads id and reports whether it is still an officer. Dangling
// references are skipped.
func resolveOfficer(ctx context.Context, store Store, id string) (*models.User, error) {
	u, err := store.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load officer %s: %w", id, err)
	}
	if !u.IsOfficer() {
		return nil, nil
	}
	return u, nil
}

// categoryPool lists the officers of every department entry for category, in
// department order then entry order, tagged with the department.
func categoryPool(ctx context.Context, store Store, category string) ([]candidate, error) {
	departments, err := store.DepartmentsForCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("load departments for %s: %w", category, err)
	}

	var pool []candidate
	for i := range departments {
		entry := departments[i].Assignment(category)
		if entry == nil {
			continue
		}
		deptID := departments[i].ID
		for _, officerID := range entry.OfficerIDs {
			u, err := resolveOfficer(ctx, store, officerID)
			if err != nil {
				return nil, err
			}
			if u == nil {
				continue
			}
			pool = append(pool, candidate{officer: *u, departmentID: &deptID})
		}
	}
	return pool, nil
}

func allOfficers(ctx context.Context, store Store) ([]candidate, error) {
	officers, err := store.FindUsers(ctx, storage.UserFilter{Role: models.RoleOfficer})
	if err != nil {
		return nil, fmt.Errorf("load officers: %w", err)
	}
	pool := make([]candidate, 0, len(officers))
	for _, o := range officers {
		pool = append(pool, candidate{officer: o, departmentID: o.DepartmentID})
	}
	return pool, nil
}
