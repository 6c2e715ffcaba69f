// Package app wires configuration into the running components shared by the
// API server and the admin CLI.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"grievance/backend/internal/api"
	"grievance/backend/internal/api/handler"
	"grievance/backend/internal/assignment"
	"grievance/backend/internal/auth"
	"grievance/backend/internal/classifier"
	"grievance/backend/internal/config"
	"grievance/backend/internal/duplicate"
	"grievance/backend/internal/embedding"
	"grievance/backend/internal/escalation"
	"grievance/backend/internal/eventhub"
	"grievance/backend/internal/events"
	"grievance/backend/internal/grievance"
	"grievance/backend/internal/localization"
	"grievance/backend/internal/logger"
	"grievance/backend/internal/metrics"
	"grievance/backend/internal/sentiment"
	"grievance/backend/internal/storage"
	"grievance/backend/internal/telegram"
)

// OpenDatabase connects to PostgreSQL with unique violations translated to
// gorm.ErrDuplicatedKey.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// OpenRedis returns nil when no address is configured or the server does not
// answer; every Redis backed feature degrades to its local variant.
func OpenRedis(ctx context.Context, cfg *config.Config, l *zap.Logger) *redis.Client {
	l = logger.OrNop(l)
	if cfg.Redis.Address == "" {
		l.Info("Redis not configured, using in-process events and unguarded sweeps")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		l.Warn("Redis unreachable, continuing without it", zap.String("address", cfg.Redis.Address), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Options lets tests and the CLI replace infrastructure.
type Options struct {
	Store storage.Store
	Redis *redis.Client
	// Locker guards scheduled sweeps across replicas; nil runs them unguarded.
	Locker escalation.Locker
}

// App is the fully wired backend.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      storage.Store
	Redis      *redis.Client
	Metrics    *metrics.Metrics
	Auth       *auth.Service
	Grievances *grievance.Service
	Hub        *eventhub.ManagerService
	Sweeper    *escalation.Sweeper
	Scheduler  *escalation.Scheduler
	Bot        *telegram.BotService
	Router     *gin.Engine

	publisher events.Publisher
}

// New builds every component. Nothing is started.
func New(cfg *config.Config, opts Options, l *zap.Logger) (*App, error) {
	l = logger.OrNop(l)
	a := &App{Config: cfg, Logger: l, Store: opts.Store, Redis: opts.Redis, Metrics: metrics.New()}

	loc, err := localization.New()
	if err != nil {
		return nil, err
	}
	var sinks []eventhub.Sink
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBotService(cfg.Telegram.Token, loc, cfg.Telegram.Language, l.Named("telegram"))
		if err != nil {
			return nil, err
		}
		a.Bot = bot
		sinks = append(sinks, telegram.NewNotifier(bot.Messenger(), a.Store, a.Store, loc, cfg.Telegram.Language, a.Metrics, l.Named("notifier")))
	}
	a.Hub = eventhub.NewManagerService(a.Metrics, l.Named("eventhub"), sinks...)

	// With Redis every replica's hub receives events through the subscription;
	// without it the hub is fed directly.
	a.publisher = a.Hub
	if a.Redis != nil {
		a.publisher = events.NewRedisPublisher(a.Redis)
	}

	var emb embedding.Embedder = embedding.Disabled{}
	if cfg.Embedding.URL != "" {
		emb = embedding.NewHTTPEmbedder(cfg.Embedding.URL, l.Named("embedding"))
	}
	primary, err := assignment.New(assignment.LoadAware, a.Store, nil)
	if err != nil {
		return nil, err
	}
	fallback, err := assignment.New(assignment.RandomFallback, a.Store, nil)
	if err != nil {
		return nil, err
	}

	a.Grievances = grievance.NewService(grievance.Dependencies{
		Store:      a.Store,
		Classifier: classifier.NewDefault(),
		Embedder:   emb,
		Duplicates: duplicate.NewDetector(a.Store,
			duplicate.WithWindow(cfg.Duplicate.Window),
			duplicate.WithFlagged(cfg.Duplicate.IncludeFlagged)),
		Primary:            primary,
		Fallback:           fallback,
		Sentiment:          sentiment.NewDefaultLexicon(),
		Publisher:          a.publisher,
		Metrics:            a.Metrics,
		Logger:             l.Named("grievance"),
		DuplicateThreshold: cfg.Duplicate.Threshold,
		EmbedTimeout:       cfg.Embedding.Timeout,
	})

	a.Sweeper = escalation.NewSweeper(a.Store, a.publisher, a.Metrics, l.Named("escalation"))
	schedOpts := []escalation.SchedulerOption{
		escalation.WithSchedule(cfg.SLA.Schedule),
		escalation.WithMetrics(a.Metrics),
	}
	if opts.Locker != nil {
		schedOpts = append(schedOpts, escalation.WithLocker(opts.Locker, cfg.SLA.LockTTL))
	}
	a.Scheduler = escalation.NewScheduler(a.Sweeper, l.Named("scheduler"), schedOpts...)

	a.Auth = auth.NewService(a.Store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	h := handler.NewHandler(a.Auth, a.Grievances, a.Store, a.Hub, cfg.App.Origin, l.Named("api"))
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	a.Router = api.NewRouter(h, a.Metrics, cfg.App.Origin, l.Named("http"))
	return a, nil
}

// Start launches the background loops. They stop when ctx is cancelled; call
// Stop afterwards to wait for the scheduler.
func (a *App) Start(ctx context.Context) error {
	go a.Hub.Run(ctx)
	if rp, ok := a.publisher.(*events.RedisPublisher); ok {
		if err := a.Hub.StartPubSubListener(ctx, rp); err != nil {
			return fmt.Errorf("subscribe to grievance events: %w", err)
		}
	}
	if a.Bot != nil {
		go a.Bot.Run(ctx)
	}
	return a.Scheduler.Start()
}

func (a *App) Stop() {
	a.Scheduler.Stop()
	<-a.Hub.Done()
}
