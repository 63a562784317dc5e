package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/claritytasks/backend/api/handler"
	"github.com/claritytasks/backend/internal/config"
	"github.com/claritytasks/backend/internal/infrastructure/monitor"
	"github.com/claritytasks/backend/internal/infrastructure/outbox"
	pgInfra "github.com/claritytasks/backend/internal/infrastructure/postgres"
	redisInfra "github.com/claritytasks/backend/internal/infrastructure/redis"
	"github.com/claritytasks/backend/internal/middleware"
	"github.com/claritytasks/backend/internal/router"
	"github.com/claritytasks/backend/internal/services"
	"github.com/claritytasks/backend/internal/services/lifecycle"
	"github.com/claritytasks/backend/internal/services/taskhub"
	"github.com/claritytasks/backend/pkg/httpcontext"
	"github.com/claritytasks/backend/pkg/logger"
	"github.com/claritytasks/backend/repository/postgres"
	redisRepo "github.com/claritytasks/backend/repository/redis"
	authUC "github.com/claritytasks/backend/usecase/auth"
	scoringUC "github.com/claritytasks/backend/usecase/scoring"
	taskUC "github.com/claritytasks/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path)
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	hub := taskhub.New(zapLogger)
	manager.Register("taskhub", func(ctx context.Context) error {
		hub.Close()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.TokenTTL)
	scoreCache := redisRepo.NewScoreboardCache(redisClient, cfg.Scoreboard.CacheTTL)

	outboxProcessor := services.NewOutboxProcessor(
		outboxStore,
		mon,
		taskRepo,
		hub,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Outbox.SyncInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
		},
	)
	outboxProcessor.Start()
	manager.Register("outbox_processor", func(ctx context.Context) error {
		outboxProcessor.Stop(ctx)
		return nil
	})

	outboxBridge := services.NewOutboxBridge(outboxProcessor)

	taskEngine := taskUC.New(taskRepo, outboxBridge, hub, zapLogger)
	scoreService := scoringUC.NewService(taskRepo, scoreCache, zapLogger)
	authUseCase := authUC.New(userRepo, sessionRepo, cfg.JWT.Secret, cfg.JWT.TokenTTL, zapLogger)

	sweeper := services.NewSweeper(taskEngine, taskRepo, services.SweeperConfig{
		SweepSchedule:   cfg.Sweep.SweepSchedule,
		RefreshSchedule: cfg.Sweep.RefreshSchedule,
	}, zapLogger)
	sweeper.Start()
	manager.Register("sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	refresher := services.NewScoreboardRefresher(scoreService, hub, zapLogger)
	refresher.Start()
	manager.Register("scoreboard_refresher", func(ctx context.Context) error {
		refresher.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskEngine, ctxAdapter, zapLogger),
		Score:  apiHandler.NewScoreHandler(scoreService, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
