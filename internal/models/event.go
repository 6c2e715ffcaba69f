package models

import "time"

// EventType names a grievance lifecycle event.
type EventType string

const (
	EventSubmitted     EventType = "submitted"
	EventAssigned      EventType = "assigned"
	EventDuplicate     EventType = "duplicate"
	EventStatusChanged EventType = "status_changed"
	EventEscalated     EventType = "escalated"
	EventFeedback      EventType = "feedback"
)

// Event is published on the event bus whenever a grievance changes.
type Event struct {
	Type            EventType `json:"type"`
	ID              string    `json:"id"`
	GrievanceID     string    `json:"grievanceId"`
	Title           string    `json:"title"`
	Status          Status    `json:"status"`
	CitizenID       string    `json:"citizen"`
	OfficerID       string    `json:"officer,omitempty"`
	DepartmentID    string    `json:"department,omitempty"`
	EscalationCount int       `json:"escalationCount,omitempty"`
	At              time.Time `json:"at"`
}

// NewEvent snapshots g into an event of type t.
func NewEvent(t EventType, g *Grievance, at time.Time) Event {
	e := Event{
		Type:            t,
		ID:              g.ID,
		GrievanceID:     g.GrievanceID,
		Title:           g.Title,
		Status:          g.Status,
		CitizenID:       g.CitizenID,
		EscalationCount: g.EscalationCount,
		At:              at,
	}
	if g.AssignedOfficerID != nil {
		e.OfficerID = *g.AssignedOfficerID
	}
	if g.DepartmentID != nil {
		e.DepartmentID = *g.DepartmentID
	}
	return e
}
