package storage

import (
	"slices"
	"time"

	"gorm.io/gorm"

	"grievance/backend/internal/models"
)

// OfficerScope matches grievances assigned to OfficerID or routed to DepartmentID.
type OfficerScope struct {
	OfficerID    string
	DepartmentID string
}

// GrievanceFilter selects grievances. Zero-valued fields are ignored; all set
// fields must match.
type GrievanceFilter struct {
	CitizenID         string
	AssignedOfficerID string
	Scope             *OfficerScope
	Statuses          []models.Status
	ExcludeStatuses   []models.Status
	Priority          models.Priority
	Category          string
	Kinds             []models.Kind
	WithEmbedding     bool
	// DeadlineBefore matches grievances whose deadline is strictly earlier.
	DeadlineBefore *time.Time
	Limit          int
}

// Matches evaluates the filter against a single grievance.
func (f GrievanceFilter) Matches(g *models.Grievance) bool {
	if f.CitizenID != "" && g.CitizenID != f.CitizenID {
		return false
	}
	if f.AssignedOfficerID != "" && !equalPtr(g.AssignedOfficerID, f.AssignedOfficerID) {
		return false
	}
	if f.Scope != nil {
		byOfficer := f.Scope.OfficerID != "" && equalPtr(g.AssignedOfficerID, f.Scope.OfficerID)
		byDepartment := f.Scope.DepartmentID != "" && equalPtr(g.DepartmentID, f.Scope.DepartmentID)
		if !byOfficer && !byDepartment {
			return false
		}
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, g.Status) {
		return false
	}
	if slices.Contains(f.ExcludeStatuses, g.Status) {
		return false
	}
	if f.Priority != "" && g.Priority != f.Priority {
		return false
	}
	if f.Category != "" && g.Category != f.Category {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, g.Kind) {
		return false
	}
	if f.WithEmbedding && !g.HasEmbedding() {
		return false
	}
	if f.DeadlineBefore != nil && (g.ExpectedResolutionAt == nil || !g.ExpectedResolutionAt.Before(*f.DeadlineBefore)) {
		return false
	}
	return true
}

// apply adds the filter conditions to a grievances query.
func (f GrievanceFilter) apply(q *gorm.DB) *gorm.DB {
	if f.CitizenID != "" {
		q = q.Where("citizen_id = ?", f.CitizenID)
	}
	if f.AssignedOfficerID != "" {
		q = q.Where("assigned_officer_id = ?", f.AssignedOfficerID)
	}
	if f.Scope != nil {
		switch {
		case f.Scope.OfficerID != "" && f.Scope.DepartmentID != "":
			q = q.Where("(assigned_officer_id = ? OR department_id = ?)", f.Scope.OfficerID, f.Scope.DepartmentID)
		case f.Scope.OfficerID != "":
			q = q.Where("assigned_officer_id = ?", f.Scope.OfficerID)
		case f.Scope.DepartmentID != "":
			q = q.Where("department_id = ?", f.Scope.DepartmentID)
		default:
			q = q.Where("1 = 0")
		}
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.ExcludeStatuses) > 0 {
		q = q.Where("status NOT IN ?", f.ExcludeStatuses)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if len(f.Kinds) > 0 {
		q = q.Where("kind IN ?", f.Kinds)
	}
	if f.WithEmbedding {
		q = q.Where("cardinality(embedding) > 0")
	}
	if f.DeadlineBefore != nil {
		q = q.Where("expected_resolution_at < ?", *f.DeadlineBefore)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q
}

func equalPtr(p *string, v string) bool {
	return p != nil && *p == v
}

// UserFilter selects users. Zero-valued fields are ignored.
type UserFilter struct {
	Role         models.Role
	DepartmentID string
}

// Matches evaluates the filter against a single user.
func (f UserFilter) Matches(u *models.User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.DepartmentID != "" && !equalPtr(u.DepartmentID, f.DepartmentID) {
		return false
	}
	return true
}

func (f UserFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.DepartmentID != "" {
		q = q.Where("department_id = ?", f.DepartmentID)
	}
	return q
}
