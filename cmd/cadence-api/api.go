// Package main provides the Cadence API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/cadence/pkg/invalidation"
	"github.com/dukex/cadence/pkg/persistence"
	"github.com/dukex/cadence/pkg/registry"
	"github.com/dukex/cadence/pkg/services"
	"github.com/dukex/cadence/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   invalidation.Publisher
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	publisher invalidation.Publisher,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		publisher:   publisher,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	opts := []services.Option{services.WithLogger(a.logger)}
	if a.publisher != nil {
		opts = append(opts, services.WithPublisher(a.publisher))
	}

	sequenceService := services.NewSequence(a.persistence, opts...)
	workflowService := services.NewWorkflow(a.persistence, a.registry, opts...)

	handlers := web.NewAPIHandlers(sequenceService, workflowService, a.validate, a.registry)

	app := fiber.New()
	app.Use(recoverer.New())
	app.Use(cors.New(cors.Config{
		ExposeHeaders: []string{web.SessionHeader},
	}))
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Cadence API")
	})

	handlers.Register(app)

	return app
}

// Start serves until ctx is cancelled, then shuts the server down.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	errCh := make(chan error, 1)

	go func() {
		errCh <- app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	a.logger.InfoContext(ctx, "Cadence API listening", "port", port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down Cadence API")

		return app.Shutdown()
	}
}
