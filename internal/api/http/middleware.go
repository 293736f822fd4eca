package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/character-service/internal/auth"
	"github.com/spec-kit/character-service/internal/observability"
	apperrors "github.com/spec-kit/character-service/pkg/util"
)

// RegisterMiddlewares attaches global middlewares. The request logger is
// outermost so it observes the status written by the error handler.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(observability.RouteLabel(c), c.Method(), domainErr.Code)
				logRejection(c, logger, domainErr)
				err = writeError(c, domainErr)
			}
		}()
		return c.Next()
	}
}

// fallbackErrorHandler serves errors raised outside the middleware chain.
func fallbackErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, toDomainError(err))
}

func writeError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	return c.Status(domainErr.HTTPStatus).JSON(domainErr.Body())
}

func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		if fiberErr.Code >= fiber.StatusInternalServerError {
			return apperrors.ToDomainError(apperrors.NewInternalError(err))
		}
		return apperrors.NewDomainError(apperrors.CodeBadRequest, fiberErr.Message, fiberErr.Code, err)
	}
	return apperrors.ToDomainError(err)
}

func logRejection(c *fiber.Ctx, logger *zap.Logger, domainErr *apperrors.DomainError) {
	fields := []zap.Field{
		zap.String("request_id", observability.RequestID(c)),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("route", observability.RouteLabel(c)),
		zap.String("code", domainErr.Code),
		zap.Int("status", domainErr.HTTPStatus),
	}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		fields = append(fields, zap.String("subject", principal.Subject), zap.String("role", string(principal.Role)))
	}

	switch {
	case domainErr.HTTPStatus >= fiber.StatusInternalServerError:
		logger.Error("request failed", append(fields, zap.Error(domainErr))...)
	case domainErr.HTTPStatus == fiber.StatusUnauthorized || domainErr.HTTPStatus == fiber.StatusForbidden:
		logger.Info("request rejected", append(fields, zap.Error(domainErr))...)
	default:
		logger.Debug("request error", fields...)
	}
}
