package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trevden810/dispatchtracker/internal/logger"
	"github.com/trevden810/dispatchtracker/internal/service"
)

// AdminHandler handles operator actions.
type AdminHandler struct {
	dispatch *service.DispatchService

	mu            sync.RWMutex
	isRunning     bool
	lastRunID     string
	lastRunTime   time.Time
	lastRunStatus string
}

// NewAdminHandler creates a new admin handler.
// Parameters:
//   - dispatch: dispatch service instance.
// Returns:
//   - *AdminHandler: initialized handler.
func NewAdminHandler(dispatch *service.DispatchService) *AdminHandler {
	return &AdminHandler{dispatch: dispatch}
}

// TriggerRunRequest is the body of POST /api/v1/admin/runs.
type TriggerRunRequest struct {
	Hygiene bool `json:"hygiene"`
}

// RunStatusResponse reports the state of operator-triggered runs.
type RunStatusResponse struct {
	IsRunning     bool   `json:"is_running"`
	LastRunID     string `json:"last_run_id,omitempty"`
	LastRunTime   string `json:"last_run_time,omitempty"`
	LastRunStatus string `json:"last_run_status,omitempty"`
}

// TriggerRun handles POST /api/v1/admin/runs. It runs a recorded correlation
// pass detached from the request's cancellation; only one runs at a time.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminHandler) TriggerRun(c *gin.Context) {
	ctx := c.Request.Context()

	var req TriggerRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		logger.CtxWarn(ctx, "Run request rejected: already running, client_ip=%s", c.ClientIP())
		c.JSON(http.StatusConflict, gin.H{"error": "A correlation run is already in progress"})
		return
	}
	h.isRunning = true
	h.mu.Unlock()

	logger.CtxInfo(ctx, "Starting operator correlation run: hygiene=%v, client_ip=%s", req.Hygiene, c.ClientIP())

	report, err := h.dispatch.Correlate(context.WithoutCancel(ctx), service.CorrelateOptions{IncludeHygiene: req.Hygiene})

	h.mu.Lock()
	h.isRunning = false
	h.lastRunTime = time.Now()
	if err != nil {
		h.lastRunStatus = "failed: " + err.Error()
	} else {
		h.lastRunID = report.RunID
		h.lastRunStatus = string(report.Status)
	}
	h.mu.Unlock()

	if err != nil {
		logger.CtxError(ctx, "Operator correlation run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// RunStatus handles GET /api/v1/admin/runs/status.
func (h *AdminHandler) RunStatus(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	resp := RunStatusResponse{
		IsRunning:     h.isRunning,
		LastRunID:     h.lastRunID,
		LastRunStatus: h.lastRunStatus,
	}
	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// ResetGeocodeCache handles POST /api/v1/admin/geocode/reset.
func (h *AdminHandler) ResetGeocodeCache(c *gin.Context) {
	n, err := h.dispatch.ResetGeocodeCache(c.Request.Context())
	switch {
	case errors.Is(err, service.ErrGeocodingDisabled):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Geocode cache cleared", "deleted": n})
	}
}
