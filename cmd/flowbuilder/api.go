package main

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/dukex/flowbuilder/pkg/assistant"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/services"
	"github.com/dukex/flowbuilder/pkg/web"
)

type API struct {
	logger   *slog.Logger
	studio   *services.Studio
	chat     *assistant.Chat
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, studio *services.Studio, chat *assistant.Chat) *API {
	return &API{
		logger:   logger,
		studio:   studio,
		chat:     chat,
		validate: models.NewValidator(),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.studio, a.validate, a.chat)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			_, ok := a.studio.HealthCheck(c.Context())

			return ok && a.studio.Loaded()
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowbuilder API")
	})

	handlers.Register(app)

	return app
}
