// Package main is the entrypoint for the NicheScout API server.
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

	"github.com/joho/godotenv"

	"github.com/kiranshivaraju/nichescout/internal/agent"
	"github.com/kiranshivaraju/nichescout/internal/api"
	"github.com/kiranshivaraju/nichescout/internal/api/handler"
	mw "github.com/kiranshivaraju/nichescout/internal/api/middleware"
	"github.com/kiranshivaraju/nichescout/internal/cache"
	"github.com/kiranshivaraju/nichescout/internal/config"
	"github.com/kiranshivaraju/nichescout/internal/connections"
	"github.com/kiranshivaraju/nichescout/internal/connector"
	"github.com/kiranshivaraju/nichescout/internal/connector/composio"
	"github.com/kiranshivaraju/nichescout/internal/llm"
	"github.com/kiranshivaraju/nichescout/internal/metrics"
	"github.com/kiranshivaraju/nichescout/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"mock_only", cfg.Agent.MockOnly,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create store and connector
	pgStore := store.NewPostgresStore(pool)

	var provider connector.Provider
	if !cfg.Agent.MockOnly {
		provider = composio.NewClient(cfg.Composio.BaseURL, cfg.Composio.APIKey,
			cfg.Composio.Toolkits, cfg.Composio.AuthConfigIDs, cfg.Composio.Timeout)
		slog.Info("connector initialized", "base_url", cfg.Composio.BaseURL, "toolkits", cfg.Composio.Toolkits)
	}

	// 6. Create agent service
	svc, err := buildAgent(ctx, cfg, provider, pgStore)
	if err != nil {
		return err
	}

	// 7. Build router with dependencies
	metrics.Init()
	deps := buildDependencies(cfg, svc, provider, redisCache, pgStore)
	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Live analyses run up to the model turn budget.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// buildAgent wires the analysis service. Without a provider only mock
// analyses are served.
func buildAgent(ctx context.Context, cfg *config.Config, provider connector.Provider, history agent.HistoryRecorder) (*agent.Service, error) {
	mock := agent.MockAnalyzer{Delay: cfg.Agent.MockDelay}
	if provider == nil {
		slog.Info("live analysis disabled, serving mock data only")
		return agent.NewService(agent.ServiceConfig{Mock: mock, History: history}), nil
	}

	chatModel, err := llm.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	extractModel, err := llm.NewExtractionModel(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create extraction model: %w", err)
	}
	limiter := llm.NewLimiter(cfg.LLM.RequestsPerMin)
	slog.Info("LLM initialized", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model, "chart_model", cfg.LLM.ChartModel)

	charts := agent.NewChartSynthesizer(extractModel, limiter, slog.Default())
	orchestrator := agent.NewOrchestrator(agent.OrchestratorConfig{
		Provider: provider,
		Model:    chatModel,
		Charts:   charts,
		Limiter:  limiter,
		MaxSteps: cfg.Agent.MaxSteps,
		Logger:   slog.Default(),
	})

	return agent.NewService(agent.ServiceConfig{
		Orchestrator: orchestrator,
		Charts:       charts,
		Mock:         mock,
		History:      history,
		Logger:       slog.Default(),
	}), nil
}

func buildDependencies(cfg *config.Config, svc *agent.Service, provider connector.Provider, c cache.Cache, s store.Store) api.Dependencies {
	deps := api.Dependencies{
		Identity:      mw.NewIdentity(cfg.IsProduction()),
		ChatRateLimit: mw.NewRateLimit(c, "chat", cfg.RateLimit.ChatRequestsPerMin),
		CORSOrigins:   cfg.Server.CORSOrigins,

		HealthHandler: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": s,
			"redis":    c,
		}, svc.LiveEnabled()),
		AnalyzeHandler:      handler.NewAnalyzeHandler(svc, cfg.Agent.DefaultMock || !svc.LiveEnabled()),
		ChatHandler:         handler.NewChatHandler(svc),
		ParseHandler:        handler.NewParseHandler(svc),
		ListAnalysesHandler: handler.NewListAnalysesHandler(s),
		GetAnalysisHandler:  handler.NewGetAnalysisHandler(s),
	}

	// Connection routes stay 501 when no connector is configured.
	if provider != nil {
		conns := connections.NewService(provider, c, cfg.Connections.CacheTTL, slog.Default())
		deps.ConnectionStatusHandler = handler.NewConnectionStatusHandler(conns)
		deps.AuthHandler = handler.NewAuthHandler(conns)
		deps.DisconnectHandler = handler.NewDisconnectHandler(conns)
	}
	return deps
}
