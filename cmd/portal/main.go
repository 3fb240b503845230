package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/Rohit5932/consult-smart-portal/internal/api/http"
	"github.com/Rohit5932/consult-smart-portal/internal/api/http/handlers"
	"github.com/Rohit5932/consult-smart-portal/internal/config"
	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/feed"
	"github.com/Rohit5932/consult-smart-portal/internal/guard"
	"github.com/Rohit5932/consult-smart-portal/internal/identity/local"
	"github.com/Rohit5932/consult-smart-portal/internal/observability"
	"github.com/Rohit5932/consult-smart-portal/internal/persistence"
	"github.com/Rohit5932/consult-smart-portal/internal/repository"
	"github.com/Rohit5932/consult-smart-portal/internal/service"
	"github.com/Rohit5932/consult-smart-portal/internal/store"
	"github.com/Rohit5932/consult-smart-portal/internal/store/localkv"
	storepg "github.com/Rohit5932/consult-smart-portal/internal/store/postgres"
)

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

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		logger.Warn("running in degraded mode: records persist to the local key-value fallback")
	}

	identityRepo := repository.NewIdentityRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	requestRepo := repository.NewServiceRequestRepository(pool)

	identitySvc := local.NewProvider(cfg.Identity, local.Dependencies{
		IdentityRepo: identityRepo,
		ProfileRepo:  profileRepo,
		Redis:        redis.Client,
		Logger:       logger,
	})

	// Push reconciliation when redis is reachable, polling otherwise.
	var changeFeed feed.Feed
	if redis.Ping(ctx) == nil {
		changeFeed = feed.NewRedis(redis.Client, logger)
	} else {
		changeFeed = feed.NewPoll(cfg.Sync.PollInterval())
	}
	defer changeFeed.Close()

	var recordSource store.Source
	if pool != nil {
		recordSource = storepg.NewSource(pool)
	} else {
		recordSource = localkv.NewSource(redis.Client)
	}

	// One shared store instance per kind; every consumer reads the same cache.
	stores := make(map[domain.RecordKind]*store.Store, len(domain.Kinds()))
	for _, kind := range domain.Kinds() {
		stores[kind] = store.New(store.Options{
			Kind:    kind,
			Source:  recordSource,
			Feed:    changeFeed,
			Logger:  logger,
			Metrics: metrics,
			Timeout: cfg.Sync.CallTimeout(),
		})
	}
	defer func() {
		for _, st := range stores {
			st.Close()
		}
	}()

	requestService := service.NewRequestService(requestRepo, cfg.Identity.DefaultCountryCode)
	profileService := service.NewProfileService(profileRepo)
	guardMiddleware := guard.NewMiddleware(identitySvc, logger, cfg.Sync.CallTimeout())

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:     handlers.NewAuthHandler(identitySvc, logger, cfg.Identity.DefaultCountryCode),
		Records:  handlers.NewRecordsHandler(stores),
		Requests: handlers.NewRequestsHandler(requestService),
		Profiles: handlers.NewProfilesHandler(profileService),
		Guard:    guardMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
