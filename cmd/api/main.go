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

	httptransport "github.com/spec-kit/orgchart-service/internal/api/http"
	"github.com/spec-kit/orgchart-service/internal/api/http/handlers"
	"github.com/spec-kit/orgchart-service/internal/auth"
	"github.com/spec-kit/orgchart-service/internal/broker"
	"github.com/spec-kit/orgchart-service/internal/cache"
	"github.com/spec-kit/orgchart-service/internal/config"
	"github.com/spec-kit/orgchart-service/internal/events"
	"github.com/spec-kit/orgchart-service/internal/observability"
	"github.com/spec-kit/orgchart-service/internal/persistence"
	"github.com/spec-kit/orgchart-service/internal/repository"
	"github.com/spec-kit/orgchart-service/internal/repository/memstore"
	"github.com/spec-kit/orgchart-service/internal/service"
	"github.com/spec-kit/orgchart-service/internal/worker"
)

const l1Expire = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	deps := map[string]handlers.Pinger{}
	var repos repository.Repositories
	if pg.Configured() {
		repos = repository.NewPostgresRepositories(pg)
		deps["postgres"] = pg
	} else {
		logger.Warn("running on the in-memory store; state is lost on exit")
		repos = memstore.New(nil).Repositories()
	}
	if redis.Configured() {
		deps["redis"] = redis
	}

	var snapshotCache cache.Cache
	if cfg.Cache.Enabled {
		local, err := cache.NewLocal(cfg.Cache.L1MaxCostBytes)
		if err != nil {
			logger.Fatal("failed to init snapshot cache", zap.Error(err))
		}
		defer local.Close()
		snapshotCache = local
		if redis.Configured() {
			snapshotCache = cache.NewTiered(local, cache.NewRemote(redis.Client, cfg.App.Name), l1Expire)
		}
	}

	var publisher broker.Publisher
	if cfg.NATS.URL != "" {
		nc, err := broker.Connect(cfg.NATS.URL, logger)
		if err != nil {
			logger.Warn("nats unavailable; change feed stays local", zap.Error(err))
		} else {
			defer nc.Close() //nolint:errcheck
			publisher = nc
			deps["nats"] = nc
		}
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	feedWorker := worker.NewChangeFeedWorker(service.NewChangeFeed(dispatcher, publisher, logger, cfg.NATS), logger, cfg.NATS.FeedBuffer)
	feedWorker.Start(dispatcher)

	orgService := service.NewOrgService(service.OrgDependencies{
		Repos:       repos,
		Org:         cfg.Org,
		Cache:       snapshotCache,
		SnapshotTTL: cfg.Cache.SnapshotTTL(),
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
	})
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, repos.Persons)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Corporations:   handlers.NewCorporationsHandler(orgService),
		Teams:          handlers.NewTeamsHandler(orgService),
		Restore:        handlers.NewRestoreHandler(orgService),
		Commits:        handlers.NewCommitsHandler(orgService),
		Roles:          handlers.NewRolesHandler(orgService),
		Drafts:         handlers.NewDraftsHandler(orgService),
		Metrics:        metrics.Handler(),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := feedWorker.Stop(drainCtx); err != nil {
		logger.Warn("change feed drain incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
