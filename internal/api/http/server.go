package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/api/http/handlers"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/observability"
	"github.com/spec-kit/blog-service/internal/persistence"
	"github.com/spec-kit/blog-service/internal/repository"
	"github.com/spec-kit/blog-service/internal/service"
)

// ServerDependencies bundles everything the HTTP surface needs.
type ServerDependencies struct {
	ServiceName    string
	Version        string
	RequestTimeout time.Duration
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Postgres       *persistence.Postgres
	Redis          *persistence.Redis
	UserRepo       repository.UserRepository
	AuthService    *service.AuthService
	BlogService    *service.BlogService
}

// NewServer assembles the fiber application with middlewares and routes.
func NewServer(deps ServerDependencies) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               deps.ServiceName,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, deps.Metrics, deps.RequestTimeout)

	authMiddleware := auth.NewAuthMiddleware(
		deps.AuthService.TokenManager(),
		deps.AuthService.Revocations(),
		deps.UserRepo,
		deps.Metrics,
		logger,
	)

	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(deps.ServiceName, deps.Version, deps.Postgres, deps.Redis, deps.Metrics),
		Users:          handlers.NewUsersHandler(deps.AuthService),
		Blogs:          handlers.NewBlogsHandler(deps.BlogService),
		AuthMiddleware: authMiddleware,
	})
	return app
}
