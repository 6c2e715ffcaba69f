package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"grievance/backend/internal/app"
	"grievance/backend/internal/config"
	"grievance/backend/internal/logger"
	"grievance/backend/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	l, err := logger.New(cfg.Log.Level, cfg.Log.Development || cfg.IsDev())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	if err := run(cfg, l); err != nil {
		l.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, l *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	rdb := app.OpenRedis(ctx, cfg, l)
	if rdb != nil {
		defer rdb.Close()
	}

	store := storage.NewStorageService(db, rdb, l.Named("storage"))
	if err := store.AutoMigrate(); err != nil {
		return err
	}
	l.Info("Database ready, migrations complete")

	a, err := app.New(cfg, app.Options{Store: store, Redis: rdb, Locker: store}, l)
	if err != nil {
		return err
	}

	bgCtx, cancelBg := context.WithCancel(context.Background())
	if err := a.Start(bgCtx); err != nil {
		cancelBg()
		return err
	}
	defer func() {
		cancelBg()
		a.Stop()
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("Starting HTTP server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		l.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	l.Info("HTTP server stopped gracefully")
	return nil
}
