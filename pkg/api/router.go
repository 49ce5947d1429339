// Package api serves the assistant over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/homeagent/pkg/api/handlers"
	"github.com/urmzd/homeagent/pkg/metrics"
	"github.com/urmzd/homeagent/pkg/pipeline"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine   *gin.Engine
	pipeline *pipeline.Pipeline
	metrics  *metrics.Recorder
	prober   handlers.Prober
	hub      *handlers.EventHub
}

// Option configures a Router.
type Option func(*Router)

// WithMetrics serves m on /metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Router) { r.metrics = m }
}

// WithProber reports completion backend reachability on /health.
func WithProber(p handlers.Prober) Option {
	return func(r *Router) { r.prober = p }
}

// NewRouter creates the API router over p.
func NewRouter(p *pipeline.Pipeline, opts ...Option) *Router {
	gin.SetMode(gin.ReleaseMode)

	router := &Router{
		pipeline: p,
		hub:      handlers.NewEventHub(p.Registry()),
	}
	for _, opt := range opts {
		opt(router)
	}

	router.engine = gin.New()
	SetupMiddleware(router.engine, router.metrics)
	router.setupRoutes()
	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	healthHandler := handlers.NewHealthHandler(r.pipeline.Registry(), r.prober, string(r.pipeline.Mode()))
	r.engine.GET("/health", healthHandler.Health)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		commandsHandler := handlers.NewCommandsHandler(r.pipeline)
		commands := v1.Group("/commands")
		{
			commands.POST("", commandsHandler.Submit)
			commands.GET("/last", commandsHandler.Last)
			commands.GET("/memory", commandsHandler.Memory)
		}

		devicesHandler := handlers.NewDevicesHandler(r.pipeline.Tools())
		devices := v1.Group("/devices")
		{
			devices.GET("", devicesHandler.ListDevices)
			devices.GET("/:id", devicesHandler.GetDevice)
			devices.GET("/:id/state", devicesHandler.GetState)
			devices.POST("/:id/state", devicesHandler.SetState)
		}
		v1.GET("/rooms", devicesHandler.ListRooms)
		v1.GET("/events", handlers.NewEventsHandler(r.hub).Stream)

		toolsHandler := handlers.NewToolsHandler(r.pipeline.Tools())
		v1.GET("/tools", toolsHandler.List)
		v1.POST("/tools/:name", toolsHandler.Invoke)

		historyHandler := handlers.NewHistoryHandler(r.pipeline.History())
		v1.GET("/history", historyHandler.List)
		v1.GET("/history/patterns", historyHandler.Patterns)
	}
}

// Handler returns the router as an http.Handler.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Server returns an http.Server for addr, for callers that manage shutdown.
func (r *Router) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
