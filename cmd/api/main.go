package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ai-newsletter/subscription-api/internal/adapters/httpapi"
	memguard "github.com/ai-newsletter/subscription-api/internal/adapters/memory/submitguard"
	memsubscriberrepo "github.com/ai-newsletter/subscription-api/internal/adapters/memory/subscriberrepo"
	postgres "github.com/ai-newsletter/subscription-api/internal/adapters/postgres"
	pgsubscriberrepo "github.com/ai-newsletter/subscription-api/internal/adapters/postgres/subscriberrepo"
	redisadapter "github.com/ai-newsletter/subscription-api/internal/adapters/redis"
	redisguard "github.com/ai-newsletter/subscription-api/internal/adapters/redis/submitguard"
	"github.com/ai-newsletter/subscription-api/internal/adapters/sqlite"
	sqlitesubscriberrepo "github.com/ai-newsletter/subscription-api/internal/adapters/sqlite/subscriberrepo"
	"github.com/ai-newsletter/subscription-api/internal/app/subscriptions"
	"github.com/ai-newsletter/subscription-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/ai-newsletter/subscription-api/internal/platform/clock"
	"github.com/ai-newsletter/subscription-api/internal/platform/config"
	"github.com/ai-newsletter/subscription-api/internal/platform/logging"
	submitguardport "github.com/ai-newsletter/subscription-api/internal/ports/out/submitguard"
	subscriberrepoport "github.com/ai-newsletter/subscription-api/internal/ports/out/subscriberrepo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log config: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authOpts := httpapi.AuthOptions{AdminSubjects: cfg.Auth.AdminSubjects, Logger: logger}

	// Auth configuration for the admin listing:
	// - jwt: require JWT_* env vars and enforce bearer auth
	// - dev: bypass JWT verification and use X-Debug-Subject
	// - none: listing is open (local use only)
	var authMW func(http.Handler) http.Handler
	switch cfg.Auth.Mode {
	case config.AuthModeDev:
		authMW = httpapi.NewDevAuthMiddleware(cfg.Auth.DevSubject, authOpts)
	case config.AuthModeNone:
		logger.Warn("admin listing is unauthenticated (AUTH_MODE=none)")
	default:
		jwtCfg, err := config.LoadJWTConfigFromEnv()
		if err != nil {
			return fmt.Errorf("invalid auth config: %w", err)
		}
		authMW = httpapi.NewAuthMiddleware(jwtverifier.New(jwtCfg), authOpts)
	}

	repo, closeRepo, err := openRepository(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	guard, closeGuard, err := openGuard(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeGuard()

	svc := subscriptions.NewService(repo, platformclock.NewSystemClock(),
		subscriptions.WithGuard(guard),
		subscriptions.WithLogger(logger.Named("subscriptions")),
	)
	api := httpapi.NewServer(svc, logger.Named("http"))
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{AdminAuth: authMW})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("auth", cfg.Auth.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openRepository(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (subscriberrepoport.Repository, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{
			Logger:             logger.Named("postgres"),
			SlowQueryThreshold: 200 * time.Millisecond,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, pool, logger.Named("migrate")); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return pgsubscriberrepo.NewRepo(pool), pool.Close, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlitesubscriberrepo.NewRepo(db), func() { _ = db.Close() }, nil
	default:
		logger.Warn("using in-memory subscriber store; data is lost on restart")
		return memsubscriberrepo.NewRepo(), func() {}, nil
	}
}

func openGuard(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (submitguardport.Guard, func(), error) {
	if cfg.GuardTTL == 0 {
		return submitguardport.Noop{}, func() {}, nil
	}
	if cfg.Addr == "" {
		return memguard.NewGuard(cfg.GuardTTL), func() {}, nil
	}
	rdb, err := redisadapter.NewClient(ctx, redisadapter.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open redis: %w", err)
	}
	logger.Info("submit guard backed by redis", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.GuardTTL))
	return redisguard.NewGuard(rdb, cfg.GuardTTL), func() { _ = rdb.Close() }, nil
}
