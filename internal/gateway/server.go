// internal/gateway/server.go
package gateway

import (
	"context"
	"fmt"
	"time"

	"caregiver-matching/internal/candidates"
	"caregiver-matching/internal/common/config"
	commonerrors "caregiver-matching/internal/common/errors"
	"caregiver-matching/internal/common/logger"
	"caregiver-matching/internal/common/observability"
	"caregiver-matching/pkg/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// PoolProvider hands out the current candidate snapshot.
type PoolProvider interface {
	Snapshot(ctx context.Context) (*candidates.Snapshot, error)
	Size() int
}

// Server is the HTTP front of the matching engines. It validates requests, picks an
// engine and bounds its run time; ranking happens in the engines only.
type Server struct {
	app      *fiber.App
	cfg      *config.Config
	registry *registry.Registry
	pool     PoolProvider
	logger   logger.Logger
	obs      *observability.Observability
}

// NewServer wires middleware and routes. obs may be nil.
func NewServer(cfg *config.Config, reg *registry.Registry, pool PoolProvider, log logger.Logger, obs *observability.Observability) *Server {
	log = log.WithFields(map[string]interface{}{"component": "gateway"})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ErrorHandler:          commonerrors.NewHTTPErrorHandler(log),
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:          config.GetDuration(cfg.Server.WriteTimeout),
		DisableStartupMessage: true,
	})

	s := &Server{
		app:      app,
		cfg:      cfg,
		registry: reg,
		pool:     pool,
		logger:   log,
		obs:      obs,
	}

	app.Use(recover.New())
	app.Use(requestID())
	app.Use(requestLogger(log))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + headerRequestID,
		ExposeHeaders: headerRequestID,
	}))
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	if cfg.Server.RateLimit.Enabled {
		app.Use(rateLimiter(cfg.Server.RateLimit))
	}

	app.Post("/match", s.handleMatch)
	app.Get("/engines", s.handleEngines)
	app.Get("/health", s.handleHealth)

	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.logger.Info("Gateway listening", map[string]interface{}{
		"addr":          addr,
		"engines":       s.registry.Names(),
		"defaultEngine": s.registry.Default(),
	})
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// engineTimeout is the engine's configured budget, capped by the gateway match timeout.
func (s *Server) engineTimeout(name string) time.Duration {
	limit := config.GetDuration(s.cfg.Gateway.MatchTimeout)
	if t := config.GetDuration(config.GetEngineConfig(s.cfg, name).Timeout); t > 0 && t < limit {
		return t
	}
	return limit
}
