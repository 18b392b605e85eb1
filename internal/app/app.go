package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/catalog"
	"github.com/temcen/moviepick/internal/config"
	"github.com/temcen/moviepick/internal/database"
	"github.com/temcen/moviepick/internal/handlers"
	"github.com/temcen/moviepick/internal/middleware"
	"github.com/temcen/moviepick/internal/services"
	"github.com/temcen/moviepick/internal/validation"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	catalog  *catalog.Catalog
	registry *prometheus.Registry
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config:   cfg,
		logger:   setupLogger(cfg),
		registry: prometheus.NewRegistry(),
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize database connections
	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	c, err := app.loadCatalog()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	app.catalog = c

	svc, err := services.New(cfg, app.logger, db, c, app.registry)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svc

	app.handlers = handlers.New(app.logger, svc, app.registry)

	if err := app.setupRouter(); err != nil {
		app.Shutdown(context.Background())
		return nil, err
	}

	return app, nil
}

func (a *App) loadCatalog() (*catalog.Catalog, error) {
	switch a.config.Catalog.Source {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return catalog.LoadFromDatabase(ctx, a.db.PG, a.logger)
	default:
		return catalog.LoadCSV(a.config.Catalog.MoviesPath, a.config.Catalog.RatingsPath, a.logger)
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Logger() *logrus.Logger {
	return a.logger
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	var errs []error
	if a.services != nil {
		if err := a.services.Close(); err != nil {
			a.logger.WithError(err).Error("Error closing event bus")
			errs = append(errs, err)
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() error {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	schemaValidator, err := validation.NewDefaultSchemaValidator()
	if err != nil {
		return fmt.Errorf("failed to load request schemas: %w", err)
	}
	validator := middleware.NewValidationMiddleware(schemaValidator)

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	// Health check and metrics endpoints (no auth required)
	router.GET("/health", a.handlers.Health.Check)
	router.GET("/metrics", a.handlers.Metrics.Serve())

	api := router.Group("/api/v1")

	if a.config.Auth.Enabled {
		api.POST("/auth/token", validator.ValidateAuthRequest(), a.handlers.Auth.Token)
	}

	protected := api.Group("")
	if a.config.Auth.Enabled {
		protected.Use(middleware.Auth(a.services.Auth, a.logger))
	}
	if a.services.RateLimit != nil {
		protected.Use(middleware.RateLimit(a.services.RateLimit, a.logger))
	}

	protected.GET("/genres", a.handlers.Recommendation.Genres)
	protected.GET("/users/:userId/preferences", a.handlers.Recommendation.Preferences)

	recommendations := protected.Group("/recommendations")
	{
		recommendations.POST("", validator.ValidateRecommendationRequest(), a.handlers.Recommendation.Post)
		recommendations.GET("/:userId", a.handlers.Recommendation.Get)
		recommendations.POST("/:userId/export", a.handlers.Export.Save)
		recommendations.GET("/:userId/download", a.handlers.Export.Download)
	}

	a.router = router
	return nil
}
