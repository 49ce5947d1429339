package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/homeagent/pkg/metrics"
)

// SetupMiddleware installs recovery, request logging, request counting and CORS.
func SetupMiddleware(r *gin.Engine, m *metrics.Recorder) {
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	if m != nil {
		r.Use(RequestMetrics(m))
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

// quietPaths are polled by probes and scrapers and log at debug level.
var quietPaths = map[string]bool{"/metrics": true, "/health": true, "/api/v1/health": true}

// RequestLogger logs one line per request, at a level that follows the status.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		case quietPaths[c.Request.URL.Path]:
			ev = log.Debug()
		default:
			ev = log.Info()
		}

		uri := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			uri += "?" + q
		}
		ev.Str("method", c.Request.Method).
			Str("path", uri).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size())
		if len(c.Errors) > 0 {
			ev.Strs("errors", c.Errors.Errors())
		}
		ev.Msg("request")
	}
}

// RequestMetrics counts requests per matched route.
func RequestMetrics(m *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status())
	}
}
