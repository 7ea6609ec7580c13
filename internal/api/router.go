package api

import (
	"log/slog"
	"net/http"

	"github.com/RyadPasha/event-hub-data-processor/internal/api/handlers"
	"github.com/RyadPasha/event-hub-data-processor/internal/api/middleware"
	"github.com/RyadPasha/event-hub-data-processor/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/RyadPasha/event-hub-data-processor/docs/swagger" // Register admin API docs
)

// Dependencies are the components the admin API reports on
type Dependencies struct {
	Router     handlers.RouterStatsProvider
	Listeners  handlers.ListenerStatsProvider
	Broker     handlers.BrokerStatsProvider
	Repository storage.DeliveryRepository
	Logger     *slog.Logger
}

// Router manages API routing and handlers
type Router struct {
	engine        *gin.Engine
	logger        *slog.Logger
	statsHandler  *handlers.StatsHandler
	recordHandler *handlers.RecordHandler
}

// NewRouter creates a new API router with all handlers initialized
func NewRouter(deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := &Router{
		engine:        gin.New(),
		logger:        logger.With("component", "admin_api"),
		statsHandler:  handlers.NewStatsHandler(deps.Router, deps.Listeners, deps.Broker, deps.Repository),
		recordHandler: handlers.NewRecordHandler(deps.Repository),
	}

	router.setupMiddleware()
	router.setupRoutes()

	return router
}

// setupMiddleware configures global middleware
func (r *Router) setupMiddleware() {
	// Logging middleware
	r.engine.Use(middleware.LoggingMiddleware(r.logger))

	// Error handling middleware
	r.engine.Use(middleware.ErrorHandlerMiddleware(r.logger))

	// Recovery middleware (catch panics)
	r.engine.Use(gin.Recovery())
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
		})
	})

	// Prometheus scrape endpoint
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger UI - serves OpenAPI documentation at /swagger/index.html
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/stats", r.statsHandler.GetStats)
		v1.GET("/records", r.recordHandler.ListRecords)
	}
}

// Engine returns the underlying Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
