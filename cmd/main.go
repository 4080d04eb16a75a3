// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/group-planner/internal/config"
	"github.com/Shivanand-hulikatti/group-planner/internal/database"
	"github.com/Shivanand-hulikatti/group-planner/internal/digest"
	"github.com/Shivanand-hulikatti/group-planner/internal/handler"
	"github.com/Shivanand-hulikatti/group-planner/internal/repository"
	"github.com/Shivanand-hulikatti/group-planner/internal/service"
	"github.com/Shivanand-hulikatti/group-planner/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("planner stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Open the store ────────────────────────────────────────────────
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("store ready", "driver", cfg.StoreDriver)

	// ── 2. Wire up layers ────────────────────────────────────────────────
	hasher, err := digest.New(cfg.PasswordHash)
	if err != nil {
		return err
	}
	events := repository.NewEventRepository(store)
	auth := repository.NewAuthRepository(store)
	registry := service.NewRegistry(events, auth, hasher, nil)
	eventSvc := service.NewEventService(events, auth, registry, nil, nil)

	codec := session.NewCookieCodec(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	eventHandler := handler.NewEventHandler(eventSvc, registry, func(w http.ResponseWriter, r *http.Request) session.Store {
		return codec.Store(w, r)
	}, logger)

	limiter := handler.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	go limiter.Run(ctx, time.Minute, 3*time.Minute)

	// ── 3. Build the router ──────────────────────────────────────────────
	router := handler.NewRouter(eventHandler, handler.RouterConfig{
		Logger:      logger,
		CORSOrigin:  cfg.CORSOrigin,
		AuthLimiter: limiter,
	})

	// ── 4. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.DSN(), logger)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresStore(pool), nil
	case config.DriverSQLite:
		return repository.OpenSQLite(cfg.SQLitePath)
	case config.DriverBolt:
		return repository.OpenBolt(cfg.BoltPath)
	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return repository.NewMongoStore(client, cfg.MongoDatabase), nil
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
