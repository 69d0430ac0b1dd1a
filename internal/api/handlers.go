package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Greeting is the body of GET /.
const Greeting = "Hola Mundo!!!"

const healthCheckTimeout = 2 * time.Second

// HealthCheckFunc reports whether a dependency is reachable.
type HealthCheckFunc func(ctx context.Context) error

// Home returns the greeting.
func Home(c *gin.Context) {
	c.JSON(http.StatusOK, Greeting)
}

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	checks map[string]HealthCheckFunc
}

func NewHealthHandler(checks map[string]HealthCheckFunc) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck returns 200 when every dependency answers, 503 otherwise.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(gin.H, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = "unavailable"
			continue
		}
		results[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"checks": results,
	})
}

// Routes bundles the handlers mounted by RegisterRoutes.
type Routes struct {
	Recipes *RecipeHandler
	Auth    *AuthHandler
	Health  *HealthHandler
	// RecipeMiddleware runs before recipe generation (caller identification, rate limiting).
	RecipeMiddleware []gin.HandlerFunc
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, routes Routes) {
	router.GET("/", Home)
	router.GET("/health", routes.Health.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	generate := append(append([]gin.HandlerFunc{}, routes.RecipeMiddleware...), routes.Recipes.GenerateRecipe)
	router.POST("/gen_recipe", generate...)

	v1 := router.Group("/api/v1")
	v1.POST("/recipes/generate", generate...)
	routes.Auth.RegisterRoutes(v1)
}
