package escalation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"grievance/backend/internal/config"
	"grievance/backend/internal/logger"
	"grievance/backend/internal/metrics"
	"grievance/backend/internal/storage"
)

// LockName is the distributed lock held for the duration of one scheduled sweep.
const LockName = "sla-sweep"

// Locker grants a named lock to a single replica until ttl expires.
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// Scheduler runs the sweeper on a cron schedule (hourly by default).
type Scheduler struct {
	sweeper  *Sweeper
	locker   Locker
	lockTTL  time.Duration
	schedule string
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	last   Report
}

type SchedulerOption func(*Scheduler)

// WithLocker makes scheduled runs take a distributed lock first.
func WithLocker(l Locker, ttl time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.locker = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithSchedule(spec string) SchedulerOption {
	return func(s *Scheduler) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

func NewScheduler(sweeper *Sweeper, l *zap.Logger, opts ...SchedulerOption) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sweeper:  sweeper,
		lockTTL:  config.DefaultSweepLockTTL,
		schedule: config.DefaultSweepSchedule,
		logger:   logger.OrNop(l),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Standard 5-field cron parser (minute hour day month weekday)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cronLogger{s.logger})))
	return s
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		return fmt.Errorf("schedule sla sweep %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("SLA sweep scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("SLA sweep scheduler stopped")
}

// RunNow sweeps immediately without taking the lock.
func (s *Scheduler) RunNow(ctx context.Context) (Report, error) {
	rep, err := s.sweeper.Run(ctx, s.now())
	if err == nil {
		s.mu.Lock()
		s.last = rep
		s.mu.Unlock()
	}
	return rep, err
}

// LastReport returns the result of the most recent successful run.
func (s *Scheduler) LastReport() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) tick() {
	if s.locker != nil {
		ok, err := s.locker.AcquireLock(s.ctx, LockName, s.lockTTL)
		switch {
		case errors.Is(err, storage.ErrNoRedis):
			// no lock backend configured, run unguarded
		case err != nil:
			s.logger.Error("Failed to acquire sweep lock, skipping run", zap.Error(err))
			return
		case !ok:
			s.logger.Info("SLA sweep already running on another replica")
			if s.metrics != nil {
				s.metrics.SweepsSkipped.Inc()
			}
			return
		}
	}

	if _, err := s.RunNow(s.ctx); err != nil {
		s.logger.Error("SLA sweep failed", zap.Error(err))
	}
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Infow(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
