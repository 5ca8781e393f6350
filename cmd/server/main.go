// Package main is the entrypoint for the Tablescope API server.
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

	"github.com/tablescope/tablescope/internal/api"
	"github.com/tablescope/tablescope/internal/api/handler"
	"github.com/tablescope/tablescope/internal/config"
	"github.com/tablescope/tablescope/internal/dataset"
	"github.com/tablescope/tablescope/internal/insight"
	"github.com/tablescope/tablescope/internal/pipeline"
	"github.com/tablescope/tablescope/internal/store"
	"github.com/tablescope/tablescope/internal/viz"
)

const shutdownTimeout = 30 * time.Second

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
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "llm_provider", cfg.LLM.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Create job store. An empty REDIS_URL selects the in-memory store,
	// which only makes sense for development.
	var jobStore store.Store
	if cfg.Redis.URL != "" {
		redisStore, err := store.NewRedisStore(cfg.Redis.URL, cfg.Retention.JobTTL)
		if err != nil {
			return fmt.Errorf("create redis store: %w", err)
		}
		defer redisStore.Close()
		if err := redisStore.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		jobStore = redisStore
		slog.Info("redis connected")
	} else {
		jobStore = store.NewMemoryStore()
		slog.Warn("REDIS_URL not set, using in-memory job store")
	}

	// 3. Create LLM provider (nil when provider is "none")
	provider, err := insight.NewProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	providerName := "none"
	var generator *insight.Generator
	if provider != nil {
		providerName = provider.Name()
		generator = insight.NewGenerator(provider, cfg.LLM)
	}
	slog.Info("LLM provider initialized", "provider", providerName)

	// 4. Wire the pipeline
	loader := dataset.NewCSVLoader(cfg.Analysis)
	vizEngine := viz.NewSpecEngine(cfg.Storage.ResultsDir)
	orch := pipeline.NewOrchestrator(jobStore, loader, vizEngine, generator, cfg)

	pool := pipeline.NewWorkerPool(orch, jobStore, cfg.Pipeline.Workers, cfg.Pipeline.QueueSize)
	pool.Start(ctx)

	// 5. Build router with dependencies
	deps := api.Dependencies{
		HealthHandler:    handler.NewHealthHandler(jobStore, providerName),
		UploadHandler:    handler.NewUploadHandler(cfg.Storage.UploadDir),
		AnalyzeHandler:   handler.NewAnalyzeHandler(jobStore, pool),
		JobStatusHandler: handler.NewJobStatusHandler(jobStore),
		JobResultHandler: handler.NewJobResultHandler(jobStore),
		JobDeleteHandler: handler.NewJobDeleteHandler(jobStore),
	}
	router := api.NewRouter(deps)

	// 6. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
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

	// Stop intake first so queued jobs finish before the process exits.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	pool.Shutdown()

	slog.Info("server stopped gracefully")
	return nil
}
