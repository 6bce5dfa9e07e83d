package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	started    time.Time
	strategies []string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(strategies []string) *HealthHandler {
	return &HealthHandler{started: time.Now(), strategies: strategies}
}

// Health returns the liveness status and the active strategy cascade.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"strategies":     h.strategies,
	})
}
