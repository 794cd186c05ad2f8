package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-service/internal/api/http/handlers"
	"github.com/spec-kit/blog-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Blogs          *handlers.BlogsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	requireToken := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", requireToken, cfg.Users.Logout)
	authGroup.Get("/me", requireToken, cfg.Users.Me)

	blogGroup := app.Group("/blog")
	blogGroup.Get("/", cfg.Blogs.List)
	blogGroup.Get("/search", cfg.Blogs.Search)
	blogGroup.Post("/create", requireToken, cfg.Blogs.Create)
	blogGroup.Get("/:id<int>", cfg.Blogs.Get)
	blogGroup.Put("/:id<int>", requireToken, cfg.Blogs.Update)
}
