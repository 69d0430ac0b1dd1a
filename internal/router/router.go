package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantry-chef/backend/internal/api"
	"github.com/pageza/pantry-chef/backend/internal/middleware"
	"github.com/pageza/pantry-chef/backend/internal/service"
)

// Deps are the services the HTTP layer is built from.
type Deps struct {
	Logger         *slog.Logger
	Auth           service.IAuthService
	RecipeHandler  *api.RecipeHandler
	Limiter        middleware.Limiter
	AllowedOrigins []string
	HealthChecks   map[string]api.HealthCheckFunc
}

// SetupRouter configures the application routes
func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(deps.Logger),
		middleware.RequestLogger(deps.Logger),
		middleware.Metrics(),
		middleware.CORS(deps.AllowedOrigins),
	)

	// Generation is open to anonymous callers; a valid token only changes
	// the rate-limit key from client IP to user id.
	recipeMiddleware := []gin.HandlerFunc{middleware.OptionalAuth(deps.Auth)}
	if deps.Limiter != nil {
		recipeMiddleware = append(recipeMiddleware, middleware.RateLimit(deps.Limiter, deps.Logger))
	}

	api.RegisterRoutes(router, api.Routes{
		Recipes:          deps.RecipeHandler,
		Auth:             api.NewAuthHandler(deps.Auth, deps.Logger),
		Health:           api.NewHealthHandler(deps.HealthChecks),
		RecipeMiddleware: recipeMiddleware,
	})

	return router
}
