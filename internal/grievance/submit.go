package grievance

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"grievance/backend/internal/assignment"
	"grievance/backend/internal/classifier"
	"grievance/backend/internal/config"
	"grievance/backend/internal/models"
)

// OutcomeKind tells the caller which of the three submission results occurred.
type OutcomeKind string

const (
	OutcomeAssigned  OutcomeKind = "assigned"
	OutcomeSubmitted OutcomeKind = "submitted"
	OutcomeDuplicate OutcomeKind = "duplicate"
)

// SubmitInput is a new complaint as entered by a citizen.
type SubmitInput struct {
	Title       string
	Description string
	CitizenID   string
	Images      []string
	// SuggestedOfficerID is stored as a hint only; it never overrides assignment.
	SuggestedOfficerID string
}

// DuplicateInfo identifies the earlier grievance a submission matched.
type DuplicateInfo struct {
	MatchedID        string  `json:"matchedId"`
	MatchedDisplayID string  `json:"matchedGrievanceId"`
	Score            float64 `json:"score"`
}

// Outcome is the result of a successful submission. A duplicate is a distinct
// outcome, not an error; the record is still persisted.
type Outcome struct {
	Kind           OutcomeKind
	Grievance      *models.Grievance
	Classification classifier.Result
	Duplicate      *DuplicateInfo
}

// Submit classifies, deduplicates, assigns and persists a new grievance.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Outcome, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: missing title or description", ErrInvalidInput)
	}
	if in.CitizenID == "" {
		return nil, fmt.Errorf("%w: missing citizen", ErrInvalidInput)
	}

	class := s.classifier.Classify(title, description)
	g := &models.Grievance{
		Title:       title,
		Description: description,
		CitizenID:   in.CitizenID,
		Category:    class.Category,
		Priority:    models.Priority(class.Priority),
		Explanation: class.Explanation,
		Status:      models.StatusSubmitted,
		Kind:        models.KindOriginal,
		SLAHours:    config.SLAHours(class.Priority),
		Images:      in.Images,
	}
	if in.SuggestedOfficerID != "" {
		hint := in.SuggestedOfficerID
		g.SuggestedOfficerID = &hint
	}

	var (
		policy = s.fallback
		match  *DuplicateInfo
	)
	vec, dup, err := s.checkDuplicate(ctx, title+" "+description)
	switch {
	case vec == nil:
		s.countEmbeddingUnavailable()
	case err != nil:
		s.logger.Warn("Duplicate check failed, using fallback assignment", zap.Error(err))
		g.Embedding = vec
	case dup != nil:
		g.Embedding = vec
		match = dup
	default:
		g.Embedding = vec
		policy = s.primary
	}

	if match != nil {
		g.Kind = models.KindDuplicate
		g.DuplicateOfID = &match.MatchedID
		g.Prepare(s.now())
		if err := s.store.CreateGrievance(ctx, g); err != nil {
			s.countOutcome("failed")
			return nil, fmt.Errorf("save grievance: %w", err)
		}
		s.countOutcome(string(OutcomeDuplicate))
		s.logger.Info("Grievance flagged as duplicate",
			zap.String("grievance_id", g.GrievanceID),
			zap.String("duplicate_of", match.MatchedDisplayID),
			zap.Float64("score", match.Score))
		s.publish(ctx, models.EventDuplicate, g)
		return &Outcome{Kind: OutcomeDuplicate, Grievance: g, Classification: class, Duplicate: match}, nil
	}

	suggestion, err := policy.Suggest(ctx, g.Category)
	if err != nil {
		s.countOutcome("failed")
		return nil, fmt.Errorf("assign grievance: %w", err)
	}
	applySuggestion(g, suggestion)

	g.Prepare(s.now())
	if err := s.store.CreateGrievance(ctx, g); err != nil {
		s.countOutcome("failed")
		return nil, fmt.Errorf("save grievance: %w", err)
	}

	kind := OutcomeSubmitted
	if g.Status == models.StatusAssigned {
		kind = OutcomeAssigned
	}
	s.countOutcome(string(kind))
	s.logger.Info("Grievance submitted",
		zap.String("grievance_id", g.GrievanceID),
		zap.String("category", g.Category),
		zap.String("priority", string(g.Priority)),
		zap.String("status", string(g.Status)),
		zap.Bool("embedded", g.HasEmbedding()))

	s.publish(ctx, models.EventSubmitted, g)
	if kind == OutcomeAssigned {
		s.publish(ctx, models.EventAssigned, g)
	}
	return &Outcome{Kind: kind, Grievance: g, Classification: class}, nil
}

// checkDuplicate embeds text and looks for a near match, bounded by the embed
// timeout. A nil vector means no embedding was available.
func (s *Service) checkDuplicate(ctx context.Context, text string) ([]float64, *DuplicateInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	res := s.embedder.Embed(ctx, text)
	vec, ok := res.Vector()
	if !ok {
		s.logger.Info("Embedding unavailable, using fallback assignment", zap.Error(res.Reason()))
		return nil, nil, nil
	}
	if s.duplicates == nil {
		return vec, nil, nil
	}

	m, err := s.duplicates.FindDuplicate(ctx, vec, s.threshold)
	if err != nil {
		return vec, nil, err
	}
	if m == nil {
		return vec, nil, nil
	}
	if s.metrics != nil {
		s.metrics.DuplicateScore.Observe(m.Score)
	}
	return vec, &DuplicateInfo{
		MatchedID:        m.Grievance.ID,
		MatchedDisplayID: m.Grievance.GrievanceID,
		Score:            m.Score,
	}, nil
}

func applySuggestion(g *models.Grievance, s *assignment.Suggestion) {
	if s == nil {
		return
	}
	officerID := s.Officer.ID
	g.AssignedOfficerID = &officerID
	if s.DepartmentID != nil {
		dept := *s.DepartmentID
		g.DepartmentID = &dept
	}
	g.Status = models.StatusAssigned
}

func (s *Service) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.Submissions.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countEmbeddingUnavailable() {
	if s.metrics != nil {
		s.metrics.EmbeddingUnavailable.Inc()
	}
}
