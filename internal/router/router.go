package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/participant-registry/internal/config"
	"github.com/noah-isme/participant-registry/internal/handler"
	"github.com/noah-isme/participant-registry/internal/middleware"
	"github.com/noah-isme/participant-registry/internal/observability"
	"github.com/noah-isme/participant-registry/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DB                 *gorm.DB
	ParticipantHandler *handler.ParticipantHandler
	ActivityLogHandler *handler.ActivityLogHandler
	AuthHandler        *handler.AuthHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group(middleware.APIPrefix, func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	adminOnly := []fiber.Handler{jwtMiddleware, middleware.RequireRole(service.AdminRole)}

	if deps.AuthHandler != nil {
		api.Post("/login", middleware.RateLimit("login", cfg.LoginRateLimit, cfg.RateLimitWindow), deps.AuthHandler.Login)
		api.Post("/logout", append(adminOnly, deps.AuthHandler.Logout)...)
	}

	if deps.ParticipantHandler != nil {
		deps.ParticipantHandler.RegisterLookup(api, middleware.RateLimit("lookup", cfg.LookupRateLimit, cfg.RateLimitWindow))

		students := api.Group("/students", adminOnly...)
		deps.ParticipantHandler.Register(students)
	}

	if deps.ActivityLogHandler != nil {
		logs := api.Group("/logs", adminOnly...)
		deps.ActivityLogHandler.Register(logs)
	}
}
