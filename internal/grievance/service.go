// Package grievance runs the submission pipeline and the officer, admin and
// citizen lifecycle operations on grievances.
package grievance

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"grievance/backend/internal/assignment"
	"grievance/backend/internal/classifier"
	"grievance/backend/internal/config"
	"grievance/backend/internal/duplicate"
	"grievance/backend/internal/embedding"
	"grievance/backend/internal/events"
	"grievance/backend/internal/logger"
	"grievance/backend/internal/metrics"
	"grievance/backend/internal/models"
	"grievance/backend/internal/sentiment"
	"grievance/backend/internal/storage"
)

var (
	// ErrInvalidInput marks requests rejected before any state is changed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden marks callers that may not act on the grievance.
	ErrForbidden = errors.New("forbidden")
)

// Store is the persistence surface of the service.
type Store interface {
	storage.GrievanceStore
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
}

type Classifier interface {
	Classify(title, description string) classifier.Result
}

type DuplicateFinder interface {
	FindDuplicate(ctx context.Context, embedding []float64, threshold float64) (*duplicate.Match, error)
}

// Dependencies wires the service. Store, Classifier, Primary and Fallback are
// required; the rest default to disabled implementations.
type Dependencies struct {
	Store      Store
	Classifier Classifier
	Embedder   embedding.Embedder
	Duplicates DuplicateFinder
	Primary    assignment.Policy
	Fallback   assignment.Policy
	Sentiment  sentiment.Analyzer
	Publisher  events.Publisher
	Metrics    *metrics.Metrics
	Logger     *zap.Logger

	DuplicateThreshold float64
	EmbedTimeout       time.Duration
	Now                func() time.Time
}

// Service handles the business logic for grievances.
type Service struct {
	store      Store
	classifier Classifier
	embedder   embedding.Embedder
	duplicates DuplicateFinder
	primary    assignment.Policy
	fallback   assignment.Policy
	sentiment  sentiment.Analyzer
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     *zap.Logger

	threshold    float64
	embedTimeout time.Duration
	now          func() time.Time
}

// NewService creates a new grievance service.
func NewService(d Dependencies) *Service {
	s := &Service{
		store:        d.Store,
		classifier:   d.Classifier,
		embedder:     d.Embedder,
		duplicates:   d.Duplicates,
		primary:      d.Primary,
		fallback:     d.Fallback,
		sentiment:    d.Sentiment,
		publisher:    d.Publisher,
		metrics:      d.Metrics,
		logger:       logger.OrNop(d.Logger),
		threshold:    d.DuplicateThreshold,
		embedTimeout: d.EmbedTimeout,
		now:          d.Now,
	}
	if s.embedder == nil {
		s.embedder = embedding.Disabled{}
	}
	if s.sentiment == nil {
		s.sentiment = sentiment.Nop{}
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.threshold <= 0 {
		s.threshold = config.DefaultDuplicateThreshold
	}
	if s.embedTimeout <= 0 {
		s.embedTimeout = config.DefaultEmbedTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// publish sends an event; failures are logged and never surface to the caller.
func (s *Service) publish(ctx context.Context, t models.EventType, g *models.Grievance) {
	if err := s.publisher.Publish(ctx, models.NewEvent(t, g, s.now())); err != nil {
		s.logger.Warn("Failed to publish grievance event",
			zap.String("type", string(t)),
			zap.String("grievance_id", g.GrievanceID),
			zap.Error(err))
	}
}
