// cmd/server is the application entry point. It wires together all
// layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/base-collective/base-events/internal/auth"
	"github.com/base-collective/base-events/internal/config"
	"github.com/base-collective/base-events/internal/database"
	"github.com/base-collective/base-events/internal/handler"
	"github.com/base-collective/base-events/internal/ratelimit"
	"github.com/base-collective/base-events/internal/repository"
	"github.com/base-collective/base-events/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogger(cfg)

	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	redisClient := newRedisClient(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	tokens, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	accountRepo := repository.NewAccountRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool, cfg.LockTimeout)
	contentRepo := repository.NewContentRepository(pool)

	authSvc := service.NewAuthService(accountRepo, hasher, tokens, cfg.LockoutThreshold, cfg.LockoutWindow)
	eventSvc := service.NewEventService(eventRepo, regRepo)
	contentSvc := service.NewContentService(contentRepo, service.StatsSources{
		Accounts:      accountRepo,
		Events:        eventRepo,
		Registrations: regRepo,
	})

	production := cfg.IsProduction()
	router := handler.NewRouter(handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, production),
		Events:       handler.NewEventHandler(eventSvc, production),
		Content:      handler.NewContentHandler(contentSvc, cfg),
		AuthMW:       handler.NewAuthMiddleware(tokens, accountRepo),
		LoginLimit:   ratelimit.New(redisClient, "login", cfg.LoginRateLimit, cfg.RateLimitWindow),
		ContactLimit: ratelimit.New(redisClient, "contact", cfg.ContactRateLimit, cfg.RateLimitWindow),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.HTTPPort, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/default.yaml"
}

func setupLogger(cfg config.Config) {
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}

// newRedisClient connects to Redis when a URL is configured. A nil client
// disables rate limiting rather than failing startup; the limiter itself
// fails open the same way when Redis drops mid-flight.
func newRedisClient(ctx context.Context, cfg config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Warn("invalid redis url, rate limiting disabled", "error", err)
		return nil
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable at startup, limiter will fail open", "error", err)
	}
	return client
}
