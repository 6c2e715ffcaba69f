package grievance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"grievance/backend/internal/models"
	"grievance/backend/internal/sentiment"
	"grievance/backend/internal/storage"
)

// UpdateStatus lets the assigned officer move a grievance along and attach a
// note. An empty status keeps the current one.
func (s *Service) UpdateStatus(ctx context.Context, officerID, id string, status models.Status, note string) (*models.Grievance, error) {
	g, err := s.store.GetGrievance(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.AssignedOfficerID == nil || *g.AssignedOfficerID != officerID {
		return nil, fmt.Errorf("%w: not assigned to you", ErrForbidden)
	}

	if status == "" {
		status = g.Status
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if !g.Status.CanOfficerTransition(status) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidInput, g.Status, status)
	}

	changed := g.Status != status
	g.Status = status
	if note = strings.TrimSpace(note); note != "" {
		g.LastNote = note
	}
	if status == models.StatusResolved && changed {
		now := s.now()
		g.ResolvedAt = &now
	}

	if err := s.store.UpdateGrievance(ctx, g); err != nil {
		return nil, fmt.Errorf("update grievance: %w", err)
	}
	s.publish(ctx, models.EventStatusChanged, g)
	return g, nil
}

// Assign is the admin override. An officer assignment inherits the officer's
// department; a department-only assignment clears the officer.
func (s *Service) Assign(ctx context.Context, id, officerID, departmentID string) (*models.Grievance, error) {
	if officerID == "" && departmentID == "" {
		return nil, fmt.Errorf("%w: officer or department required", ErrInvalidInput)
	}

	g, err := s.store.GetGrievance(ctx, id)
	if err != nil {
		return nil, err
	}

	if officerID != "" {
		officer, err := s.store.GetUser(ctx, officerID)
		if err != nil {
			return nil, fmt.Errorf("officer %s: %w", officerID, err)
		}
		if !officer.IsOfficer() {
			return nil, fmt.Errorf("%w: user %s is not an officer", ErrInvalidInput, officerID)
		}
		g.AssignedOfficerID = &officer.ID
		g.DepartmentID = officer.DepartmentID
	} else {
		dept, err := s.store.GetDepartment(ctx, departmentID)
		if err != nil {
			return nil, fmt.Errorf("department %s: %w", departmentID, err)
		}
		g.DepartmentID = &dept.ID
		g.AssignedOfficerID = nil
	}
	g.Status = models.StatusAssigned

	if err := s.store.UpdateGrievance(ctx, g); err != nil {
		return nil, fmt.Errorf("update grievance: %w", err)
	}
	s.logger.Info("Grievance reassigned",
		zap.String("grievance_id", g.GrievanceID),
		zap.String("officer", officerID),
		zap.String("department", departmentID))
	s.publish(ctx, models.EventAssigned, g)
	return g, nil
}

// Feedback lets the owning citizen comment on and close a grievance. Closing
// never changes the status.
func (s *Service) Feedback(ctx context.Context, citizenID, id, feedback string, closed bool) (*models.Grievance, error) {
	g, err := s.store.GetGrievance(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.CitizenID != citizenID {
		return nil, fmt.Errorf("%w: not your grievance", ErrForbidden)
	}

	if feedback = strings.TrimSpace(feedback); feedback != "" {
		g.Feedback = feedback
		if score, ok := s.analyze(feedback); ok && score.Label != "" {
			label := score.Label
			value := score.Score
			g.Sentiment = &label
			g.SentimentScore = &value
		}
	}
	if closed {
		g.ClosedByCitizen = true
	}

	if err := s.store.UpdateGrievance(ctx, g); err != nil {
		return nil, fmt.Errorf("update grievance: %w", err)
	}
	s.publish(ctx, models.EventFeedback, g)
	return g, nil
}

// analyze runs sentiment analysis; a panicking analyzer leaves sentiment unset.
func (s *Service) analyze(text string) (score sentiment.Score, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Sentiment analysis failed", zap.Any("panic", r))
			ok = false
		}
	}()
	return s.sentiment.Analyze(text), true
}

// Get returns a grievance the viewer is allowed to see.
func (s *Service) Get(ctx context.Context, viewer *models.User, id string) (*models.Grievance, error) {
	g, err := s.store.GetGrievance(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(viewer, g) {
		return nil, fmt.Errorf("%w: grievance not visible", ErrForbidden)
	}
	return g, nil
}

// ListFilter narrows a grievance listing. Zero-valued fields are ignored.
type ListFilter struct {
	Status   models.Status
	Priority models.Priority
	Category string
	Limit    int
}

// List returns what the viewer may see: citizens their own grievances, officers
// those assigned to them or their department, admins everything.
func (s *Service) List(ctx context.Context, viewer *models.User, lf ListFilter) ([]models.Grievance, error) {
	f := storage.GrievanceFilter{
		Priority: lf.Priority,
		Category: lf.Category,
		Limit:    lf.Limit,
	}
	if lf.Status != "" {
		f.Statuses = []models.Status{lf.Status}
	}

	switch viewer.Role {
	case models.RoleCitizen:
		f.CitizenID = viewer.ID
	case models.RoleOfficer:
		scope := &storage.OfficerScope{OfficerID: viewer.ID}
		if viewer.DepartmentID != nil {
			scope.DepartmentID = *viewer.DepartmentID
		}
		f.Scope = scope
	case models.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, viewer.Role)
	}

	out, err := s.store.FindGrievances(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list grievances: %w", err)
	}
	return out, nil
}

func visibleTo(viewer *models.User, g *models.Grievance) bool {
	switch viewer.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCitizen:
		return g.CitizenID == viewer.ID
	case models.RoleOfficer:
		scope := storage.OfficerScope{OfficerID: viewer.ID}
		if viewer.DepartmentID != nil {
			scope.DepartmentID = *viewer.DepartmentID
		}
		return storage.GrievanceFilter{Scope: &scope}.Matches(g)
	}
	return false
}

// IsNotFound reports whether err means a referenced record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
