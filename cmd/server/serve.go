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

	"github.com/ashureev/misogi/internal/action"
	"github.com/ashureev/misogi/internal/agent"
	"github.com/ashureev/misogi/internal/api"
	"github.com/ashureev/misogi/internal/config"
	"github.com/ashureev/misogi/internal/identity"
	"github.com/ashureev/misogi/internal/llm"
	"github.com/ashureev/misogi/internal/maintenance"
	"github.com/ashureev/misogi/internal/middleware"
	"github.com/ashureev/misogi/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

//nolint:gocyclo // Startup wiring is intentionally sequential to keep dependency setup explicit.
func runServe(parent context.Context, cfg *config.Config) error {
	logger := slog.Default()
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath, store.WithUnlockTTL(cfg.UnlockTTL))
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	slog.Info("Database connected")

	var unlocks store.UnlockStore = repo
	if cfg.RedisAddr != "" {
		redisUnlocks, err := store.NewRedisUnlockStore(ctx, cfg.RedisAddr, cfg.UnlockTTL)
		if err != nil {
			return fmt.Errorf("initialize redis unlock store: %w", err)
		}
		defer func() {
			if closeErr := redisUnlocks.Close(); closeErr != nil {
				slog.Error("Failed to close redis unlock store", "error", closeErr)
			}
		}()
		unlocks = redisUnlocks
		slog.Info("Unlock store backed by Redis", "addr", cfg.RedisAddr)
	} else if cfg.UnlockTTL > 0 {
		maintenance.StartUnlockSweeper(ctx, repo, maintenance.DefaultSweepInterval, logger)
	}

	model, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		APIKey:  cfg.Model.APIKey,
		Model:   cfg.Model.Name,
		Timeout: cfg.Model.Timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize model client: %w", err)
	}
	if cfg.AIEnabled() {
		slog.Info("AI features enabled", "model", cfg.Model.Name)
	} else {
		slog.Info("AI features disabled (GEMINI_API_KEY not set)")
	}

	conversationLogger, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
		MaxOpenFiles:  cfg.ConversationLog.MaxOpenFiles,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize conversation logger: %w", err)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Warn("Failed to close conversation logger", "error", closeErr)
		}
	}()

	executor := action.NewExecutor(repo, logger)
	assistant := agent.NewService(model, repo, executor, conversationLogger, logger)

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, unlocks, cfg)
	agentHandler := agent.NewHandler(assistant, cfg)
	defer agentHandler.Close()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.EchoRequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(middleware.CORSOptions{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedHeaders: []string{identity.SessionHeaderName},
		ExposedHeaders: []string{chiMiddleware.RequestIDHeader},
	}))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	baseHandler.RegisterRoutes(r)
	agentHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server stopped successfully")
	return nil
}
