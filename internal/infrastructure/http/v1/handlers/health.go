// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PingFunc checks the backing store.
type PingFunc func(ctx context.Context) error

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	ping    PingFunc
	driver  string
	version string
}

// NewHealthHandler creates a health handler. ping may be nil for stores
// without a connection (memory).
func NewHealthHandler(driver, version string, ping PingFunc) *HealthHandler {
	return &HealthHandler{ping: ping, driver: driver, version: version}
}

// Live reports that the process is up.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready reports whether storage answers a ping.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"checks": map[string]string{
					"storage": "unhealthy: " + err.Error(),
				},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"storage": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":     "tombstone",
		"version": h.version,
		"storage": h.driver,
	})
}
