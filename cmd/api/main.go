package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/makerspace-admin/internal/api/http"
	"github.com/spec-kit/makerspace-admin/internal/api/http/handlers"
	"github.com/spec-kit/makerspace-admin/internal/auth"
	"github.com/spec-kit/makerspace-admin/internal/config"
	"github.com/spec-kit/makerspace-admin/internal/events"
	"github.com/spec-kit/makerspace-admin/internal/observability"
	"github.com/spec-kit/makerspace-admin/internal/persistence"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	"github.com/spec-kit/makerspace-admin/internal/service"
	"github.com/spec-kit/makerspace-admin/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	visitorRepo := repository.NewVisitorRepository(pool)
	visitRepo := repository.NewVisitRepository(pool)
	machineRepo := repository.NewMachineRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	historyRepo := repository.NewTaskHistoryRepository(pool)
	verificationRepo := repository.NewVerificationTokenRepository(pool)
	resetRepo := repository.NewResetTokenRepository(pool)
	kioskRepo := repository.NewKioskRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	identityService := service.NewIdentityService(*cfg, service.IdentityDependencies{
		UserRepo:              userRepo,
		VisitorRepo:           visitorRepo,
		VerificationTokenRepo: verificationRepo,
		ResetTokenRepo:        resetRepo,
	})
	userService := service.NewUserService(userRepo, verificationRepo, dispatcher)
	visitorService := service.NewVisitorService(visitorRepo, visitRepo)
	machineService := service.NewMachineService(machineRepo)
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:    taskRepo,
		HistoryRepo: historyRepo,
		MachineRepo: machineRepo,
		Dispatcher:  dispatcher,
	})
	sessionService := service.NewSessionService(*cfg, service.SessionDependencies{
		VisitorRepo: visitorRepo,
		VisitRepo:   visitRepo,
		Redis:       redis.Client,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	enrollmentService, err := service.NewEnrollmentService(*cfg, kioskRepo, dispatcher)
	if err != nil {
		logger.Fatal("failed to init enrollment", zap.Error(err))
	}
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notify)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(identityService.TokenManager(), userRepo, visitorRepo)
	deviceMiddleware := auth.NewDeviceMiddleware(kioskRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:             handlers.NewAuthHandler(identityService),
		Users:            handlers.NewUsersHandler(userService),
		Visitors:         handlers.NewVisitorsHandler(visitorService),
		Machines:         handlers.NewMachinesHandler(machineService),
		Tasks:            handlers.NewTasksHandler(taskService),
		Kiosk:            handlers.NewKioskHandler(sessionService),
		Admin:            handlers.NewAdminHandler(userService, enrollmentService),
		AuthMiddleware:   authMiddleware,
		DeviceMiddleware: deviceMiddleware,
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
