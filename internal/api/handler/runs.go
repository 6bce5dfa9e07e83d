package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/service"
)

const maxRunsLimit = 200

// RunHandler serves correlation run history.
type RunHandler struct {
	dispatch *service.DispatchService
}

// NewRunHandler creates a new run handler.
func NewRunHandler(dispatch *service.DispatchService) *RunHandler {
	return &RunHandler{dispatch: dispatch}
}

// RunResponse is one run with its archive link.
type RunResponse struct {
	domain.CorrelationRun
	SnapshotURL string                     `json:"snapshot_url,omitempty"`
	Snapshot    *service.CorrelationReport `json:"snapshot,omitempty"`
}

// ListRuns handles GET /api/v1/runs?limit=.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *RunHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > maxRunsLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
		return
	}

	runs, err := h.dispatch.ListRuns(c.Request.Context(), limit)
	if err != nil {
		writeRunError(c, err)
		return
	}

	out := make([]RunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, RunResponse{CorrelationRun: runs[i], SnapshotURL: h.dispatch.SnapshotURL(&runs[i])})
	}
	c.JSON(http.StatusOK, gin.H{"runs": out, "count": len(out)})
}

// GetRun handles GET /api/v1/runs/:id. ?snapshot=true inlines the archived report.
func (h *RunHandler) GetRun(c *gin.Context) {
	ctx := c.Request.Context()

	run, err := h.dispatch.GetRun(ctx, c.Param("id"))
	if err != nil {
		writeRunError(c, err)
		return
	}

	resp := RunResponse{CorrelationRun: *run, SnapshotURL: h.dispatch.SnapshotURL(run)}
	if inline, _ := strconv.ParseBool(c.Query("snapshot")); inline {
		snap, err := h.dispatch.LoadSnapshot(ctx, run)
		if err != nil {
			writeRunError(c, err)
			return
		}
		resp.Snapshot = snap
	}
	c.JSON(http.StatusOK, resp)
}

func writeRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRunHistoryDisabled):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, service.ErrNoSnapshot):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
