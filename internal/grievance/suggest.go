package grievance

import (
	"context"
	"fmt"
	"strings"

	"grievance/backend/internal/assignment"
	"grievance/backend/internal/classifier"
	"grievance/backend/internal/config"
	"grievance/backend/internal/sentiment"
)

// Preview is what a submission would produce, without persisting anything.
type Preview struct {
	Classification classifier.Result      `json:"classification"`
	SLAHours       int                    `json:"slaHours"`
	Embedded       bool                   `json:"embedded"`
	Duplicate      *DuplicateInfo         `json:"duplicate,omitempty"`
	Suggestion     *assignment.Suggestion `json:"-"`
}

// Suggest previews classification, duplicate detection and the load-aware
// officer pick for a draft complaint.
func (s *Service) Suggest(ctx context.Context, title, description string) (*Preview, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" && description == "" {
		return nil, fmt.Errorf("%w: missing title or description", ErrInvalidInput)
	}

	class := s.classifier.Classify(title, description)
	p := &Preview{Classification: class, SLAHours: config.SLAHours(class.Priority)}

	vec, dup, err := s.checkDuplicate(ctx, strings.TrimSpace(title+" "+description))
	if err == nil {
		p.Embedded = vec != nil
		p.Duplicate = dup
	}

	suggestion, err := s.primary.Suggest(ctx, class.Category)
	if err != nil {
		return nil, fmt.Errorf("suggest officer: %w", err)
	}
	p.Suggestion = suggestion
	return p, nil
}

// Sentiment scores free text with the configured analyzer.
func (s *Service) Sentiment(text string) sentiment.Score {
	score, _ := s.analyze(text)
	return score
}
