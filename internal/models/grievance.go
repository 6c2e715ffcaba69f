package models

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Status is the lifecycle state of a grievance.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
	StatusEscalated  Status = "escalated"
)

// OpenStatuses count towards an officer's open load.
var OpenStatuses = []Status{StatusAssigned, StatusInProgress}

// TerminalStatuses are never touched by the escalation sweep.
var TerminalStatuses = []Status{StatusResolved, StatusRejected}

// officerTransitions lists the targets an assigned officer may move a grievance to.
// Escalation is applied by the SLA sweep only.
var officerTransitions = map[Status][]Status{
	StatusSubmitted:  {StatusAssigned, StatusInProgress, StatusResolved, StatusRejected},
	StatusAssigned:   {StatusInProgress, StatusResolved, StatusRejected},
	StatusInProgress: {StatusResolved, StatusRejected},
	StatusEscalated:  {StatusInProgress, StatusResolved, StatusRejected},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusAssigned, StatusInProgress, StatusResolved, StatusRejected, StatusEscalated:
		return true
	}
	return false
}

// Terminal reports whether s ends the officer workflow.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// CanOfficerTransition reports whether an officer may move a grievance from s to next.
// Keeping the current status (a note-only update) is always allowed.
func (s Status) CanOfficerTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range officerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Priority is the urgency tier that drives the SLA window.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Kind discriminates original complaints from records flagged as duplicates.
type Kind string

const (
	KindOriginal  Kind = "original"
	KindDuplicate Kind = "duplicate"
)

// KeywordMatch records one keyword hit and the category or priority it supports.
type KeywordMatch struct {
	Category string `json:"category,omitempty"`
	Priority string `json:"priority,omitempty"`
	Keyword  string `json:"keyword"`
}

// Explanation lists every keyword that matched during classification. It is kept
// for auditability only and may contain matches that did not win.
type Explanation struct {
	MatchedCategory []KeywordMatch `json:"matchedCategory"`
	MatchedPriority []KeywordMatch `json:"matchedPriority"`
}

// Grievance is a citizen complaint tracked through its resolution lifecycle.
type Grievance struct {
	ID          string `gorm:"primaryKey" json:"id"`
	GrievanceID string `gorm:"uniqueIndex;not null" json:"grievanceId"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	CitizenID   string `gorm:"index;not null" json:"citizen"`

	Category    string      `gorm:"index;not null;default:general" json:"category"`
	Priority    Priority    `gorm:"type:text;index;not null;default:medium" json:"priority"`
	Explanation Explanation `gorm:"serializer:json" json:"explanation"`

	Status Status `gorm:"type:text;index;not null;default:submitted" json:"status"`

	AssignedOfficerID  *string `gorm:"index" json:"assignedOfficer,omitempty"`
	DepartmentID       *string `gorm:"index" json:"department,omitempty"`
	SuggestedOfficerID *string `json:"suggestedOfficer,omitempty"`

	SLAHours             int        `gorm:"not null;default:72" json:"slaHours"`
	ExpectedResolutionAt *time.Time `gorm:"index" json:"expectedResolutionAt,omitempty"`
	Escalated            bool       `gorm:"not null;default:false" json:"escalated"`
	EscalationCount      int        `gorm:"not null;default:0" json:"escalationCount"`

	Kind          Kind            `gorm:"type:text;index;not null;default:original" json:"kind"`
	DuplicateOfID *string         `gorm:"index" json:"duplicateOf,omitempty"`
	Embedding     pq.Float64Array `gorm:"type:double precision[]" json:"-"`

	Feedback        string  `gorm:"type:text" json:"feedback,omitempty"`
	Sentiment       *string `json:"sentiment,omitempty"`
	SentimentScore  *int    `json:"sentimentScore,omitempty"`
	ClosedByCitizen bool    `gorm:"not null;default:false" json:"closedByCitizen"`

	Images     pq.StringArray `gorm:"type:text[]" json:"images"`
	LastNote   string         `gorm:"type:text" json:"lastNote,omitempty"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate fills the identity and deadline fields that are still empty.
func (g *Grievance) BeforeCreate(tx *gorm.DB) (err error) {
	now := g.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	g.Prepare(now)
	return
}

// Prepare assigns the ids, the creation time and the SLA deadline when absent.
// Fields that are already set are never overwritten, so calling it twice is safe.
func (g *Grievance) Prepare(now time.Time) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	if g.GrievanceID == "" {
		g.GrievanceID = NewDisplayID(g.CreatedAt)
	}
	if g.Kind == "" {
		g.Kind = KindOriginal
	}
	if g.ExpectedResolutionAt == nil && g.SLAHours > 0 {
		deadline := g.CreatedAt.Add(time.Duration(g.SLAHours) * time.Hour)
		g.ExpectedResolutionAt = &deadline
	}
}

// NewDisplayID builds a human readable id from the last eight digits of the unix
// millisecond clock and a three digit random suffix. It is practically unique, not
// guaranteed unique; the unique index on grievance_id rejects the rare collision.
func NewDisplayID(t time.Time) string {
	ms := fmt.Sprintf("%d", t.UnixMilli())
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return fmt.Sprintf("G-%s-%d", ms, 100+rand.IntN(900))
}

// IsDuplicate reports whether the record was flagged as a duplicate at submission.
func (g *Grievance) IsDuplicate() bool {
	return g.Kind == KindDuplicate
}

// IsOpen reports whether the grievance counts towards its officer's open load.
func (g *Grievance) IsOpen() bool {
	return g.Status == StatusAssigned || g.Status == StatusInProgress
}

// IsOverdue reports whether a non-terminal grievance is past its deadline at now.
func (g *Grievance) IsOverdue(now time.Time) bool {
	return !g.Status.Terminal() && g.ExpectedResolutionAt != nil && g.ExpectedResolutionAt.Before(now)
}

// HasEmbedding reports whether the grievance can act as a duplicate candidate.
func (g *Grievance) HasEmbedding() bool {
	return len(g.Embedding) > 0
}

// Escalate forces the grievance into the escalated state and bumps the counter.
// History is never reset: every call increments EscalationCount.
func (g *Grievance) Escalate() {
	g.EscalationCount++
	g.Escalated = true
	g.Status = StatusEscalated
}
