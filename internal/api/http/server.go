package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/character-service/internal/config"
	"github.com/spec-kit/character-service/internal/observability"
)

// NewApp builds the fiber application with global middlewares attached.
// Routes are added separately with RegisterRoutes.
func NewApp(cfg config.AppConfig, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.Name,
		// Request strings outlive handlers in logs, metrics and the revocation store.
		Immutable:             true,
		ReadTimeout:           cfg.ReadTimeout(),
		BodyLimit:             cfg.BodyLimitBytes,
		DisableStartupMessage: true,
		ErrorHandler:          fallbackErrorHandler,
	})
	RegisterMiddlewares(app, logger, metrics, cfg.RequestTimeout())
	return app
}
