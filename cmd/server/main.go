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

	specpkg "github.com/talk2dom/web/api"
	"github.com/talk2dom/web/internal/account"
	"github.com/talk2dom/web/internal/analytics"
	"github.com/talk2dom/web/internal/api"
	"github.com/talk2dom/web/internal/api/handler"
	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/billing"
	"github.com/talk2dom/web/internal/config"
	"github.com/talk2dom/web/internal/database"
	"github.com/talk2dom/web/internal/janitor"
	"github.com/talk2dom/web/internal/metrics"
	"github.com/talk2dom/web/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	backendClient := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithObserver(metrics.ObserveBackend),
	)

	tokens := account.NewTokenService(cfg.SessionSecret, cfg.SessionTTL)
	accounts := account.NewService(account.NewRepository(db.Pool()), backendClient, tokens, cfg.BcryptCost)
	sessions := handler.NewSessions(backendClient, session.NewDirectory(store))
	tracker := analytics.NewSafe(newAnalyticsSink(cfg.AnalyticsSink, db))

	var confirmer billing.Confirmer
	if cfg.StripeSecretKey != "" {
		confirmer = billing.NewStripeConfirmer(cfg.StripeSecretKey)
	} else {
		slog.Warn("STRIPE_SECRET_KEY not set; checkout is disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)

	sweepers := map[string]janitor.Sweeper{"auth-rate-limiter": limiter}
	if mem, ok := store.(*session.MemoryStore); ok {
		sweepers["session-cache"] = mem
	}
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go janitor.New(cfg.SweepInterval, sweepers).Start(janitorCtx)

	router := api.NewRouter(api.RouterDeps{
		DBPinger:      db,
		BackendPinger: handler.PingerFunc(backendClient.Reachable),
		Version:       cfg.Version,
		OpenAPISpec:   specpkg.OpenAPISpec,
		Authenticator: accounts,
		Accounts:      accounts,
		Sessions:      sessions,
		Billing:       billing.NewService(confirmer, sessions),
		Tracker:       tracker,
		AuthLimiter:   limiter,
		GoogleURL:     backendClient.GoogleLoginURL(),
		CookieSecure:  cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting talk2dom web server", "port", cfg.Port, "version", cfg.Version, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// newAnalyticsSink picks the analytics sink named by ANALYTICS_SINK.
func newAnalyticsSink(kind string, db *database.DB) analytics.Sink {
	if kind == "log" {
		return analytics.NewLogSink(slog.Default())
	}
	return analytics.NewPostgresSink(db.Pool())
}

// newSessionStore returns the Redis store when REDIS_URL is set and an
// in-process store otherwise.
func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set; caching session users in memory")
		return session.NewMemoryStore(cfg.SessionCacheTTL), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("pinging redis: %w", err)
	}
	return session.NewRedisStore(client, cfg.SessionCacheTTL), func() { client.Close() }, nil
}
