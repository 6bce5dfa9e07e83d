package api

import (
	"github.com/gin-gonic/gin"

	"github.com/trevden810/dispatchtracker/internal/api/handler"
	"github.com/trevden810/dispatchtracker/internal/api/middleware"
	"github.com/trevden810/dispatchtracker/internal/logger"
	"github.com/trevden810/dispatchtracker/internal/metrics"
	"github.com/trevden810/dispatchtracker/internal/service"
)

// RouterConfig holds router settings.
type RouterConfig struct {
	Mode string
	CORS middleware.CORSConfig
	Log  *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(dispatch *service.DispatchService, cfg RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(cfg.Log))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler(dispatch.Strategies())
	dispatchHandler := handler.NewDispatchHandler(dispatch)
	runHandler := handler.NewRunHandler(dispatch)
	adminHandler := handler.NewAdminHandler(dispatch)

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/tracking", dispatchHandler.Tracking)
		v1.GET("/correlation", dispatchHandler.Correlation)
		v1.GET("/hygiene", dispatchHandler.Hygiene)
		v1.GET("/proximity", dispatchHandler.Proximity)

		v1.GET("/runs", runHandler.ListRuns)
		v1.GET("/runs/:id", runHandler.GetRun)

		admin := v1.Group("/admin")
		admin.POST("/runs", adminHandler.TriggerRun)
		admin.GET("/runs/status", adminHandler.RunStatus)
		admin.POST("/geocode/reset", adminHandler.ResetGeocodeCache)
	}

	return r
}
