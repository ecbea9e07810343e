package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/finance-tracker/internal/api/http"
	"github.com/spec-kit/finance-tracker/internal/api/http/handlers"
	"github.com/spec-kit/finance-tracker/internal/auth"
	"github.com/spec-kit/finance-tracker/internal/cache"
	"github.com/spec-kit/finance-tracker/internal/config"
	"github.com/spec-kit/finance-tracker/internal/events"
	"github.com/spec-kit/finance-tracker/internal/observability"
	"github.com/spec-kit/finance-tracker/internal/persistence"
	"github.com/spec-kit/finance-tracker/internal/repository"
	"github.com/spec-kit/finance-tracker/internal/service"
	"github.com/spec-kit/finance-tracker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics("finance_tracker")

	userRepo := repository.NewUserRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)

	codec := auth.NewTokenCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTokenTTL())
	validator := auth.NewTokenValidator(codec, nil)
	summaries := cache.NewSummaryCache(redis.Client, cfg.Cache.SummaryTTL())

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(dispatcher, summaries, logger))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:  userRepo,
		Codec:     codec,
		Validator: validator,
		Lockout:   auth.NewRedisLockoutStore(redis.Client, ""),
		Logger:    logger,
	})
	transactionService := service.NewTransactionService(service.TransactionDependencies{
		TransactionRepo: transactionRepo,
		Summaries:       summaries,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:         handlers.NewAuthHandler(authService),
		Transactions: handlers.NewTransactionsHandler(transactionService, authService),
		Binder:       auth.NewIdentityBinder(validator, logger, metrics),
		Gate:         validator,
		Metrics:      metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
