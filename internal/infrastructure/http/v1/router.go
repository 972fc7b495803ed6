// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"tombstone/internal/domain/model"
	"tombstone/internal/domain/softdelete"
	"tombstone/internal/infrastructure/http/v1/handlers"
	"tombstone/internal/infrastructure/http/v1/middleware"
	"tombstone/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Models served under /api/v1/:model
	Models *model.Registry

	// SoftDeleters holds the restore entry points, keyed by model name
	SoftDeleters map[string]*softdelete.SoftDeleter

	// Ping checks the store for /health/ready; nil means always ready
	Ping handlers.PingFunc

	// Driver and Version are reported by /health/info
	Driver  string
	Version string

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger.WithComponent("http")))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Driver, cfg.Version, cfg.Ping)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()
	modelHandler := handlers.NewModelHandler(baseHandler, cfg.Models, cfg.SoftDeleters)
	metaHandler := handlers.NewMetadataHandler(baseHandler, cfg.Models, modelHandler.SoftDelete)

	v1 := router.Group("/api/v1")
	{
		meta := v1.Group("/meta")
		meta.GET("", metaHandler.ListModels)
		meta.GET("/:name", metaHandler.GetModel)

		RegisterModelRoutes(v1.Group("/:model"), modelHandler)
	}

	return router
}
