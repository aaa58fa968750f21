// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unifiedui/handoff-service/internal/api/dto"
	"github.com/unifiedui/handoff-service/internal/core/cache"
	"github.com/unifiedui/handoff-service/internal/core/docdb"
)

// Pinger is a dependency probed by the health endpoints.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	components map[string]Pinger
	order      []string
}

// NewHealthHandler creates a new HealthHandler probing the cache and the
// document database. Extra components, like the analytics store, are added
// with With.
func NewHealthHandler(cacheClient cache.Client, docDBClient docdb.Client) *HealthHandler {
	h := &HealthHandler{components: make(map[string]Pinger)}
	return h.With("cache", cacheClient).With("docdb", docDBClient)
}

// With registers another probed component.
func (h *HealthHandler) With(name string, p Pinger) *HealthHandler {
	if _, exists := h.components[name]; !exists {
		h.order = append(h.order, name)
	}
	h.components[name] = p
	return h
}

// Health handles the /health endpoint.
// @Summary Health check
// @Description Returns the overall health status and component statuses
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service healthy"
// @Failure 503 {object} dto.HealthResponse "Service unhealthy"
// @Router /api/v1/handoff-service/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	components := make(map[string]string, len(h.order))
	healthy := true

	for _, name := range h.order {
		if err := h.components[name].Ping(c.Request.Context()); err != nil {
			components[name] = "unhealthy"
			healthy = false
			continue
		}
		components[name] = "healthy"
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, dto.HealthResponse{
		Status:     status,
		Components: components,
	})
}

// Ready handles the /ready endpoint.
// @Summary Readiness check
// @Description Returns 200 if the service is ready to accept traffic
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Service ready"
// @Failure 503 {object} map[string]string "Service not ready"
// @Router /api/v1/handoff-service/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	for _, name := range h.order {
		if err := h.components[name].Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": name + " unavailable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// Live handles the /live endpoint.
// @Summary Liveness check
// @Description Returns 200 if the service is alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Service alive"
// @Router /api/v1/handoff-service/live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
