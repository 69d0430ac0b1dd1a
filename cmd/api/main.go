package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/api"
	"github.com/pageza/pantry-chef/backend/internal/database"
	"github.com/pageza/pantry-chef/backend/internal/llm/providers"
	"github.com/pageza/pantry-chef/backend/internal/logging"
	"github.com/pageza/pantry-chef/backend/internal/middleware"
	"github.com/pageza/pantry-chef/backend/internal/router"
	"github.com/pageza/pantry-chef/backend/internal/server"
	"github.com/pageza/pantry-chef/backend/internal/service"
	"github.com/pageza/pantry-chef/backend/internal/storage"
	"github.com/pageza/pantry-chef/backend/migrations"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pantry-chef",
	Short: "Recipe generation API",
	Long: `Serves the pantry chef HTTP API: recipe generation from an ingredient
list and user accounts.

Configuration is read from defaults, an optional config file, .env,
environment variables and Docker secrets.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)
	if cfg.Env == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DB, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if cfg.DB.Driver == "postgres" {
		if _, err := database.RunMigrations(ctx, db, migrations.FS, logger); err != nil {
			return err
		}
	}

	rdb, err := database.NewRedisClient(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	sessions, limiter := sessionsAndLimiter(cfg.RateLimit, rdb)
	authService := service.NewAuthService(db, sessions, cfg.JWT)

	client, err := providers.New(ctx, cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	recipeService := service.NewRecipeService(client, cfg.LLM, logger)

	s3Cfg, err := config.NewS3Config(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("failed to configure recipe archive: %w", err)
	}
	recipeHandler := api.NewRecipeHandler(recipeService, storage.New(s3Cfg), logger)

	handler := router.SetupRouter(router.Deps{
		Logger:         logger,
		Auth:           authService,
		RecipeHandler:  recipeHandler,
		Limiter:        limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		HealthChecks:   healthChecks(db, rdb),
	})
	srv := server.New(cfg.Server, handler, logger)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr(), "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		logger.Info("received signal", "signal", sig.String())
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	recipeHandler.Wait()
	if shutdownErr != nil && !errors.Is(shutdownErr, context.DeadlineExceeded) {
		return fmt.Errorf("server shutdown error: %w", shutdownErr)
	}
	logger.Info("server stopped")
	return nil
}

// sessionsAndLimiter picks shared Redis-backed implementations when Redis is
// configured and per-process ones otherwise. A zero request budget disables
// rate limiting.
func sessionsAndLimiter(cfg config.RateLimitConfig, rdb *redis.Client) (service.SessionStore, middleware.Limiter) {
	limitCfg := middleware.RateLimitConfig{
		Window:    cfg.Window,
		Limit:     cfg.Requests,
		KeyPrefix: "rate_limit:recipe_generation",
	}

	var (
		sessions service.SessionStore
		limiter  middleware.Limiter
	)
	if rdb != nil {
		sessions = service.NewRedisSessionStore(rdb)
		limiter = middleware.NewRateLimiter(rdb, limitCfg)
	} else {
		sessions = service.NewMemorySessionStore()
		limiter = middleware.NewLocalRateLimiter(limitCfg)
	}
	if cfg.Requests == 0 {
		limiter = nil
	}
	return sessions, limiter
}

func healthChecks(db *gorm.DB, rdb *redis.Client) map[string]api.HealthCheckFunc {
	checks := map[string]api.HealthCheckFunc{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}
