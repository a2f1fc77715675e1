// internal/gateway/middleware.go
package gateway

import (
	"time"

	"caregiver-matching/internal/common/config"
	"caregiver-matching/internal/common/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	localsRequestID = "requestId"
)

// requestID reuses a caller-supplied X-Request-ID or generates one, and echoes it back.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Locals(localsRequestID, id)
		c.Set(headerRequestID, id)
		return c.Next()
	}
}

// requestLogger logs one line per request. Errors are rendered here so the logged
// status is the one the caller receives.
func requestLogger(log logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := map[string]interface{}{
			"method":    c.Method(),
			"path":      c.Path(),
			"status":    c.Response().StatusCode(),
			"latencyMs": time.Since(start).Milliseconds(),
			"requestId": c.Locals(localsRequestID),
		}
		if queries := c.Queries(); len(queries) > 0 {
			q := make(map[string]interface{}, len(queries))
			for k, v := range queries {
				q[k] = v
			}
			fields["query"] = logger.MaskFields(q)
		}
		log.Info("Request completed", fields)
		return nil
	}
}

// rateLimiter applies a per-IP sliding window. Health probes are exempt.
func rateLimiter(cfg config.RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: config.GetDuration(cfg.Window),
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests")
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
