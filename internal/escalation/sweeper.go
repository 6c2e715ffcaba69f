// Package escalation forces overdue grievances into the escalated state on a
// recurring schedule.
package escalation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"grievance/backend/internal/events"
	"grievance/backend/internal/logger"
	"grievance/backend/internal/metrics"
	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

// Report summarises one sweep run.
type Report struct {
	Scanned   int           `json:"scanned"`
	Escalated int           `json:"escalated"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Sweeper escalates every non-terminal grievance whose deadline has passed.
// It is not idempotent: each run re-escalates records that are still overdue.
type Sweeper struct {
	store     storage.GrievanceStore
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewSweeper(store storage.GrievanceStore, publisher events.Publisher, m *metrics.Metrics, l *zap.Logger) *Sweeper {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Sweeper{store: store, publisher: publisher, metrics: m, logger: logger.OrNop(l)}
}

// Run escalates the grievances overdue at now. Each record is persisted on its
// own; a failing record is logged and counted and the run moves on. Only the
// candidate query failing aborts the run.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (Report, error) {
	start := time.Now()
	var rep Report

	overdue, err := Overdue(ctx, s.store, now)
	if err != nil {
		return rep, err
	}
	rep.Scanned = len(overdue)

	for i := range overdue {
		g := &overdue[i]
		if err := ctx.Err(); err != nil {
			rep.Failed += len(overdue) - i
			s.logger.Warn("SLA sweep interrupted", zap.Int("remaining", len(overdue)-i), zap.Error(err))
			break
		}
		if err := s.escalate(ctx, g); err != nil {
			rep.Failed++
			if s.metrics != nil {
				s.metrics.EscalationFailures.Inc()
			}
			s.logger.Error("Failed to escalate grievance",
				zap.String("grievance_id", g.GrievanceID),
				zap.Error(err))
			continue
		}
		rep.Escalated++
		if s.metrics != nil {
			s.metrics.Escalations.Inc()
		}
		if err := s.publisher.Publish(ctx, models.NewEvent(models.EventEscalated, g, now)); err != nil {
			s.logger.Warn("Failed to publish escalation", zap.String("grievance_id", g.GrievanceID), zap.Error(err))
		}
	}

	rep.Duration = time.Since(start)
	if s.metrics != nil {
		s.metrics.SweepDuration.Observe(rep.Duration.Seconds())
	}
	s.logger.Info("SLA sweep finished",
		zap.Int("scanned", rep.Scanned),
		zap.Int("escalated", rep.Escalated),
		zap.Int("failed", rep.Failed),
		zap.Duration("took", rep.Duration))
	return rep, nil
}

// Overdue lists the non-terminal grievances whose deadline has passed at now.
func Overdue(ctx context.Context, store storage.GrievanceStore, now time.Time) ([]models.Grievance, error) {
	overdue, err := store.FindGrievances(ctx, storage.GrievanceFilter{
		ExcludeStatuses: models.TerminalStatuses,
		DeadlineBefore:  &now,
	})
	if err != nil {
		return nil, fmt.Errorf("find overdue grievances: %w", err)
	}
	return overdue, nil
}

func (s *Sweeper) escalate(ctx context.Context, g *models.Grievance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	g.Escalate()
	return s.store.UpdateGrievance(ctx, g)
}
