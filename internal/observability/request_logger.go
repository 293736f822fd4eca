package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// UnmatchedRoute is the metrics label for requests no registered route served.
const UnmatchedRoute = "unmatched"

const (
	requestIDKey  = "request_id"
	routeLabelKey = "route_label"
)

// RequestLogger logs one line per request and feeds the request counters.
// It must wrap the error handler so the final status is observed.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(requestIDKey, requestID)
		c.Set(HeaderRequestID, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		metrics.RecordRequest(RouteLabel(c), c.Method(), status, elapsed)

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		)
		return err
	}
}

// RequestID returns the correlation id assigned by RequestLogger.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// SetRouteLabel records the route pattern that served the request. Metrics
// are keyed on it so raw paths never become counter keys.
func SetRouteLabel(c *fiber.Ctx, pattern string) {
	c.Locals(routeLabelKey, pattern)
}

// RouteLabel returns the pattern set by SetRouteLabel, or UnmatchedRoute.
func RouteLabel(c *fiber.Ctx) string {
	if label, ok := c.Locals(routeLabelKey).(string); ok && label != "" {
		return label
	}
	return UnmatchedRoute
}
