package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"github.com/makkenzo/apikey-dashboard/internal/domain/user"
	"github.com/makkenzo/apikey-dashboard/internal/handler"
	"github.com/makkenzo/apikey-dashboard/internal/handler/middleware"
	"github.com/makkenzo/apikey-dashboard/internal/server"
	"github.com/makkenzo/apikey-dashboard/internal/service"
	"github.com/makkenzo/apikey-dashboard/internal/storage/memstorage"
	"github.com/makkenzo/apikey-dashboard/internal/storage/postgres"
	"github.com/makkenzo/apikey-dashboard/internal/storage/redis"
	"github.com/makkenzo/apikey-dashboard/internal/tasks"
	"github.com/makkenzo/apikey-dashboard/internal/util"
	"github.com/makkenzo/apikey-dashboard/internal/worker"
	"github.com/makkenzo/apikey-dashboard/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const rateLimitWindow = time.Minute

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s, storage driver: %s", cfg.Log.Level, cfg.Storage.Driver)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health := map[string]handler.Pinger{}

	var (
		apiKeyRepo apikey.Repository
		userRepo   user.Repository
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		var dbPool *pgxpool.Pool
		dbPool, err = postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbPool.Close()

		if cfg.Database.AutoMigrate {
			applied, err := postgres.NewMigrator(dbPool, appLogger).Migrate(appCtx)
			if err != nil {
				sugarLogger.Fatalf("Failed to apply migrations: %v", err)
			}
			sugarLogger.Infof("Migrations applied: %d", len(applied))
		}

		apiKeyRepo = postgres.NewAPIKeyRepository(dbPool, appLogger)
		userRepo = postgres.NewUserRepository(dbPool, appLogger)
		health["postgres"] = dbPool
	default:
		sugarLogger.Warn("Using in-memory storage, all data is lost on restart")
		apiKeyRepo = memstorage.NewAPIKeyRepository()
		userRepo = memstorage.NewUserRepository()
	}

	var (
		keyCache    service.KeyCache
		denylist    service.SessionDenylist
		usage       service.UsageRecorder
		rateLimiter middleware.RateLimiter
		runWorkers  bool
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		asynqClient := asynq.NewClient(worker.RedisConnOpt(&cfg.Redis))
		defer asynqClient.Close()

		keyCache = redis.NewKeyCache(redisClient, cfg.Validation.CacheTTL, appLogger)
		denylist = redis.NewSessionDenylist(redisClient)
		usage = tasks.NewUsageEnqueuer(asynqClient, appLogger)
		if cfg.RateLimit.ValidatePerMinute > 0 {
			rateLimiter = redis.NewRateLimiter(redisClient, cfg.RateLimit.ValidatePerMinute, rateLimitWindow)
		}
		health["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		runWorkers = true
	} else {
		sugarLogger.Warn("Redis is not configured: key cache, rate limiting and background usage tracking are disabled")
		denylist = memstorage.NewSessionDenylist()
		usage = service.NewDirectUsageRecorder(apiKeyRepo, appLogger)
	}

	authService, err := service.NewAuthService(userRepo, denylist, &cfg.Session, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to initialize auth service: %v", err)
	}
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, keyCache, util.KeyGenerator(cfg.Keys.Style), appLogger)
	storeValidator := service.NewStoreValidator(apiKeyRepo, keyCache, usage, appLogger)

	deps := server.Deps{
		Config:         cfg,
		Auth:           authService,
		Keys:           apiKeyService,
		StoreValidator: storeValidator,
		RateLimiter:    rateLimiter,
		Health:         health,
		Logger:         appLogger,
	}
	if cfg.Validation.StaticSecret != "" {
		staticValidator, err := service.NewStaticSecretValidator(cfg.Validation.StaticSecret, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to initialize static validator: %v", err)
		}
		deps.StaticValidator = staticValidator
	}

	router, err := server.NewRouter(deps)
	if err != nil {
		sugarLogger.Fatalf("Failed to build router: %v", err)
	}

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	if runWorkers {
		g.Go(func() error {
			if err := worker.RunWorkers(groupCtx, cfg, apiKeyRepo, appLogger); err != nil {
				sugarLogger.Error("Asynq worker failed", zap.Error(err))
				return fmt.Errorf("asynq worker error: %w", err)
			}
			sugarLogger.Info("Asynq workers finished gracefully.")
			return nil
		})
	}

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}
