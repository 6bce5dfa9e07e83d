// Package telematics reads vehicle positions and engine states from the fleet
// telematics REST API.
package telematics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/geo"
	"github.com/trevden810/dispatchtracker/internal/logger"
	"github.com/trevden810/dispatchtracker/internal/metrics"
)

const (
	sourceName      = "telematics"
	statsPath       = "/fleet/vehicles/stats"
	statTypes       = "gps,engineStates"
	defaultPageSize = 512
	maxPages        = 50
)

// Config holds configuration for the telematics client.
type Config struct {
	BaseURL   string
	APIToken  string
	Timeout   time.Duration
	PageLimit int
}

// Client fetches the vehicle stats feed.
type Client struct {
	client    *resty.Client
	pageLimit int
}

// NewClient creates a telematics client.
// Parameters:
//   - cfg: base URL, bearer token, timeout and page size.
// Returns:
//   - *Client: client ready to list vehicles.
func NewClient(cfg *Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", "Bearer "+cfg.APIToken).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageSize
	}
	return &Client{client: client, pageLimit: pageLimit}
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return sourceName
}

type statsResponse struct {
	Data       []vehicleStats `json:"data"`
	Pagination struct {
		EndCursor   string `json:"endCursor"`
		HasNextPage bool   `json:"hasNextPage"`
	} `json:"pagination"`
	Message string `json:"message,omitempty"`
}

type vehicleStats struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	ExternalIDs map[string]string `json:"externalIds"`
	GPS         *struct {
		Latitude       float64  `json:"latitude"`
		Longitude      float64  `json:"longitude"`
		HeadingDegrees *float64 `json:"headingDegrees"`
		SpeedMPH       float64  `json:"speedMilesPerHour"`
		ReverseGeo     *struct {
			FormattedLocation string `json:"formattedLocation"`
		} `json:"reverseGeo"`
	} `json:"gps"`
	EngineState *struct {
		Value string `json:"value"`
	} `json:"engineState"`
	Driver *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"staticAssignedDriver"`
}

// ListVehicles walks every page of the stats feed.
func (c *Client) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	start := time.Now()
	vehicles := make([]domain.Vehicle, 0)
	cursor := ""

	for page := 0; page < maxPages; page++ {
		resp, err := c.fetchPage(ctx, cursor)
		if err != nil {
			metrics.UpstreamRequests.WithLabelValues(sourceName, metrics.Status(err)).Inc()
			return nil, err
		}
		for _, s := range resp.Data {
			vehicles = append(vehicles, toVehicle(s))
		}
		if !resp.Pagination.HasNextPage || resp.Pagination.EndCursor == "" {
			break
		}
		cursor = resp.Pagination.EndCursor
	}
	metrics.UpstreamRequests.WithLabelValues(sourceName, metrics.Status(nil)).Inc()

	logger.With(logger.Fields{logger.FieldSource: sourceName}).
		WithCount(len(vehicles)).
		WithDuration(time.Since(start).Milliseconds()).
		Debug(ctx, "Fetched vehicle stats")
	return vehicles, nil
}

func (c *Client) fetchPage(ctx context.Context, cursor string) (*statsResponse, error) {
	params := map[string]string{
		"types": statTypes,
		"limit": strconv.Itoa(c.pageLimit),
	}
	if cursor != "" {
		params["after"] = cursor
	}

	var result statsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result).
		SetError(&result).
		Get(statsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to call telematics API: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		if result.Message != "" {
			return nil, fmt.Errorf("telematics API error: %s", result.Message)
		}
		return nil, fmt.Errorf("telematics API error: status %d", resp.StatusCode())
	}
	return &result, nil
}

func toVehicle(s vehicleStats) domain.Vehicle {
	v := domain.Vehicle{
		ID:          s.ID,
		Name:        s.Name,
		EngineState: domain.EngineUnknown,
		ExternalIDs: s.ExternalIDs,
	}
	if s.GPS != nil {
		point := geo.Point{Lat: s.GPS.Latitude, Lng: s.GPS.Longitude}
		if point.Valid() {
			loc := &domain.Location{Point: point}
			if s.GPS.ReverseGeo != nil {
				loc.Address = s.GPS.ReverseGeo.FormattedLocation
			}
			v.Location = loc
		}
		v.SpeedMPH = s.GPS.SpeedMPH
		v.Heading = s.GPS.HeadingDegrees
	}
	if s.EngineState != nil {
		v.EngineState = domain.ParseEngineState(s.EngineState.Value)
	}
	if s.Driver != nil {
		v.DriverName = s.Driver.Name
	}
	return v
}
