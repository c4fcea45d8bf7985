// Package main implements the entry point for the edge-gateway server,
// the authentication, rate-limiting, and authorization layer that fronts
// the backend CRUD services.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/edge-gateway/internal/config"
	"github.com/phrazzld/edge-gateway/internal/gateway/authctx"
	"github.com/phrazzld/edge-gateway/internal/gateway/policy"
	"github.com/phrazzld/edge-gateway/internal/gateway/proxy"
	"github.com/phrazzld/edge-gateway/internal/gateway/ratelimit"
	"github.com/phrazzld/edge-gateway/internal/platform/logger"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// termination signal before the server gives up on them.
const shutdownTimeout = 10 * time.Second

func main() {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatalf("edge-gateway failed: %v", err)
	}
}

// run wires configuration, logging, stores, and the middleware chain, then
// serves until a termination signal arrives.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if _, err := logger.Setup(cfg.Server); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("gateway configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"rate_limit_requests", cfg.RateLimit.Requests,
		"rate_limit_window_seconds", cfg.RateLimit.WindowSeconds,
		"rate_limit_store", cfg.RateLimit.Store,
		"proxy_routes", len(cfg.Proxy.Routes),
		"policy_routes", len(cfg.Policy.Routes))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("failed to create rate limit store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("failed to close rate limit store", "error", err)
		}
	}()

	limiter := ratelimit.New(store, ratelimit.Config{
		Limit:       int64(cfg.RateLimit.Requests),
		Window:      time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		ExemptPaths: cfg.RateLimit.ExemptPaths,
	}, slog.Default())

	extractor, err := authctx.NewExtractor(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create auth extractor: %w", err)
	}

	table, err := policy.FromConfig(cfg.Policy)
	if err != nil {
		return fmt.Errorf("failed to build policy table: %w", err)
	}
	engine := policy.NewEngine(table, cfg.Auth.APIKey)

	backend, err := proxy.New(cfg.Proxy)
	if err != nil {
		return fmt.Errorf("failed to build proxy routes: %w", err)
	}

	router := newRouter(limiter, extractor, engine, backend)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received, draining in-flight requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("gateway stopped")
	return nil
}

// newStore selects the rate-limit counter store from configuration.
func newStore(ctx context.Context, cfg config.RateLimitConfig) (ratelimit.Store, error) {
	switch cfg.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		return ratelimit.NewRedisStore(pingCtx, client)
	default:
		return ratelimit.NewMemoryStore(clock.New()), nil
	}
}
