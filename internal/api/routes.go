// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"

	applog "github.com/dild26/caffeine-projects-sub001/internal/log"
	"github.com/dild26/caffeine-projects-sub001/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Spool    storage.Spool
	Jobs     JobManager
	Stats     StatsProvider
	Templates TemplateReader
	MaxFiles  int
	Version   string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Ingest    IngestHandler
	Templates TemplateHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Stats),
		Ingest:    NewIngestHandler(deps.Spool, deps.Jobs, deps.MaxFiles),
		Templates: NewTemplateHandler(deps.Templates),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check and metrics
	e.GET("/api/health", handlers.Health.HandleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Ingestion job routes
	ingestGroup := e.Group("/api/ingest")
	ingestGroup.POST("", handlers.Ingest.HandleIngestMultipart)
	ingestGroup.POST("/json", handlers.Ingest.HandleIngestJSON)
	ingestGroup.GET("/:jobId", handlers.Ingest.HandleJobStatus)
	ingestGroup.GET("/:jobId/progress", handlers.Ingest.HandleJobProgressStream)
	ingestGroup.GET("/:jobId/filesets", handlers.Ingest.HandleJobFileSets)
	ingestGroup.DELETE("/:jobId", handlers.Ingest.HandleCancelJob)

	// Auto-saved records
	e.GET("/api/templates/:id", handlers.Templates.HandleGetTemplate)
}

// MiddlewareConfig selects the common middleware
type MiddlewareConfig struct {
	Logger           *zap.Logger
	RequestLogging   bool
	EnableCORS       bool
	AllowOrigins     []string
	BodyLimit        string
	ShowErrorDetails bool
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	e.HTTPErrorHandler = NewErrorHandler(cfg.ShowErrorDetails)

	if cfg.RequestLogging && cfg.Logger != nil {
		e.Use(applog.Logger(cfg.Logger, "http"))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := cfg.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
