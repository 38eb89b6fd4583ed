// Package main is the entrypoint for the Notable API server.
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

	"github.com/kiranshivaraju/notable/internal/api"
	"github.com/kiranshivaraju/notable/internal/api/handler"
	mw "github.com/kiranshivaraju/notable/internal/api/middleware"
	"github.com/kiranshivaraju/notable/internal/api/response"
	"github.com/kiranshivaraju/notable/internal/audit"
	"github.com/kiranshivaraju/notable/internal/cache"
	"github.com/kiranshivaraju/notable/internal/config"
	"github.com/kiranshivaraju/notable/internal/llm"
	"github.com/kiranshivaraju/notable/internal/recommend"
	"github.com/kiranshivaraju/notable/internal/scan"
	"github.com/kiranshivaraju/notable/internal/store"
	"github.com/kiranshivaraju/notable/pkg/models"
)

const (
	shutdownTimeout = 30 * time.Second
	// in-process cache entries without an explicit TTL
	memoryCacheTTL     = 10 * time.Minute
	memoryCacheCleanup = time.Minute
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	c, closeCache, err := newCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeCache()

	providers, err := llm.NewProviders(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("create llm providers: %w", err)
	}
	orch := llm.NewOrchestrator(cfg.LLM.Timeout, providers...)
	slog.Info("llm providers initialized", "providers", orch.Available())

	pgStore := store.NewPostgresStore(pool)
	router := api.NewRouter(buildDependencies(cfg, pgStore, c, orch))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// scans wait on several vendors in sequence
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newCache connects to Redis when configured and otherwise falls back to an
// in-process cache, which is only correct for a single server instance.
func newCache(ctx context.Context, cfg config.RedisConfig) (cache.Cache, func(), error) {
	if cfg.URL == "" {
		slog.Warn("REDIS_URL not set, using in-process cache")
		return cache.NewMemoryCache(memoryCacheTTL, memoryCacheCleanup), func() {}, nil
	}

	rc, err := cache.NewRedisCache(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis cache: %w", err)
	}
	if err := rc.Ping(ctx); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")
	return rc, func() { rc.Close() }, nil
}

// buildDependencies wires services and handlers.
func buildDependencies(cfg *config.Config, s store.Store, c cache.Cache, orch *llm.Orchestrator) api.Dependencies {
	// Audits need live web results; without a search provider they report provider_error.
	var auditProvider models.LLMProvider
	if p, ok := orch.SearchProvider(); ok {
		auditProvider = p
		slog.Info("profile audits enabled", "provider", p.Name())
	} else {
		slog.Warn("no web-search provider configured, profile audits will be inconclusive")
	}

	auditSvc := audit.NewService(auditProvider, s, c, audit.Options{
		Timeout: cfg.LLM.Timeout,
		LockTTL: cfg.Audit.LockTTL,
	})
	scanSvc := scan.NewService(orch, s, auditSvc, c, cfg.Audit.MaxAgeDays)
	recSvc := recommend.NewService(s, auditSvc, c)

	policy := handler.AuditPolicy{
		MaxAgeDays:      cfg.Audit.MaxAgeDays,
		ForceMaxAgeDays: cfg.Audit.ForceMaxAgeDays,
	}

	return api.Dependencies{
		Auth:   mw.NewAuth(s),
		Health: healthHandler(s, c),
		Query:  handler.NewQueryHandler(orch),

		CreateScan: handler.NewCreateScanHandler(scanSvc),
		ListScans:  handler.NewListScansHandler(scanSvc),

		GetAudit:      handler.NewGetAuditHandler(auditSvc, policy),
		RunAudit:      handler.NewRunAuditHandler(auditSvc, policy),
		UpdateProfile: handler.NewUpdateProfileHandler(auditSvc),

		Recommendations: handler.NewRecommendationsHandler(recSvc),

		CreateKey: handler.NewCreateKeyHandler(s),
		ListKeys:  handler.NewListKeysHandler(s),
		RevokeKey: handler.NewRevokeKeyHandler(s),
	}
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		if checks["database"] != "ok" || checks["cache"] != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
