package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trevden810/dispatchtracker/internal/geo"
	"github.com/trevden810/dispatchtracker/internal/logger"
	"github.com/trevden810/dispatchtracker/internal/service"
)

// DispatchHandler serves the dashboard endpoints.
type DispatchHandler struct {
	dispatch *service.DispatchService
}

// NewDispatchHandler creates a new dispatch handler.
// Parameters:
//   - dispatch: dispatch service instance.
// Returns:
//   - *DispatchHandler: initialized handler.
func NewDispatchHandler(dispatch *service.DispatchService) *DispatchHandler {
	return &DispatchHandler{dispatch: dispatch}
}

// Tracking handles GET /api/v1/tracking.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *DispatchHandler) Tracking(c *gin.Context) {
	view, err := h.dispatch.Tracking(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Tracking failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Correlation handles GET /api/v1/correlation. ?hygiene=true adds the fleet
// hygiene report computed on the same jobs.
func (h *DispatchHandler) Correlation(c *gin.Context) {
	withHygiene, _ := strconv.ParseBool(c.DefaultQuery("hygiene", "false"))

	report, err := h.dispatch.Correlate(c.Request.Context(), service.CorrelateOptions{IncludeHygiene: withHygiene})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Correlation failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Hygiene handles GET /api/v1/hygiene. ?job_id= limits the report to one job.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *DispatchHandler) Hygiene(c *gin.Context) {
	ctx := c.Request.Context()

	var jobID *int64
	if raw := c.Query("job_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job_id: " + raw})
			return
		}
		jobID = &id
		ctx = logger.WithField(ctx, logger.FieldJobID, id)
	}

	report, err := h.dispatch.Hygiene(ctx, jobID)
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		logger.CtxError(ctx, "Hygiene analysis failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Hygiene analysis failed: " + err.Error()})
	default:
		c.JSON(http.StatusOK, report)
	}
}

// ProximityRequest is the query of GET /api/v1/proximity.
type ProximityRequest struct {
	Lat       *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng       *float64 `form:"lng" binding:"required,min=-180,max=180"`
	TargetLat *float64 `form:"target_lat" binding:"required,min=-90,max=90"`
	TargetLng *float64 `form:"target_lng" binding:"required,min=-180,max=180"`
	Threshold float64  `form:"threshold" binding:"omitempty,gt=0"`
}

// Proximity handles GET /api/v1/proximity and classifies the distance between
// a vehicle position and a target.
func (h *DispatchHandler) Proximity(c *gin.Context) {
	var req ProximityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	vehicle := geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	target := geo.Point{Lat: *req.TargetLat, Lng: *req.TargetLng}
	c.JSON(http.StatusOK, geo.ProximityStatus(vehicle, target, req.Threshold))
}
