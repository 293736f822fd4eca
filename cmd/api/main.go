package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/character-service/internal/api/http"
	"github.com/spec-kit/character-service/internal/api/http/handlers"
	"github.com/spec-kit/character-service/internal/auth"
	"github.com/spec-kit/character-service/internal/config"
	"github.com/spec-kit/character-service/internal/events"
	"github.com/spec-kit/character-service/internal/observability"
	"github.com/spec-kit/character-service/internal/persistence"
	"github.com/spec-kit/character-service/internal/repository"
	"github.com/spec-kit/character-service/internal/service"
	"github.com/spec-kit/character-service/internal/worker"
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

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var revocations auth.RevocationStore = auth.NewMemoryRevocationStore()
	if redis != nil {
		revocations = persistence.NewRedisRevocationStore(redis, cfg.Redis.RevokedKey)
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:    repository.NewUserRepository(),
		Revocations: revocations,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	if cfg.Auth.AdminSeeded() {
		if err := authService.SeedAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Fatal("failed to seed admin", zap.Error(err))
		}
		logger.Info("admin account ready", zap.String("email", cfg.Auth.AdminEmail))
	}
	characterService := service.NewCharacterService(repository.NewCharacterRepository(), dispatcher, logger)

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App, logger, metrics)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis, metrics),
		Users:      handlers.NewUsersHandler(authService),
		Characters: handlers.NewCharactersHandler(characterService),
		Verifier:   auth.NewVerifier(authService.TokenManager(), revocations),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
