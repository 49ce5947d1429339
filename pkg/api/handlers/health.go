package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homeagent/pkg/api/types"
	"github.com/urmzd/homeagent/pkg/device"
)

// Prober reports whether the completion backend is reachable.
type Prober interface {
	Available(ctx context.Context) (bool, error)
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	registry *device.Registry
	prober   Prober
	mode     string
}

// NewHealthHandler creates a new health handler. A nil prober reports the
// capability as "unknown" without degrading the service.
func NewHealthHandler(registry *device.Registry, prober Prober, mode string) *HealthHandler {
	return &HealthHandler{registry: registry, prober: prober, mode: mode}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the health of the API and the reachability of the completion backend
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Failure      503  {object}  types.HealthResponse  "Completion backend unreachable"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	capability := "unknown"
	if h.prober != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		ok, err := h.prober.Available(ctx)
		cancel()
		if ok && err == nil {
			capability = "available"
		} else {
			capability = "unavailable"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if capability == "unavailable" {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, types.HealthResponse{
		Status:     status,
		Capability: capability,
		Mode:       h.mode,
		Devices:    h.registry.Len(),
		Timestamp:  time.Now(),
	})
}
