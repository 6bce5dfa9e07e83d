package geocode

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/trevden810/dispatchtracker/internal/geo"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimConfig holds configuration for the Nominatim-compatible client.
type NominatimConfig struct {
	BaseURL     string
	APIKey      string
	UserAgent   string
	CountryCode string
	Timeout     time.Duration
}

// NominatimClient geocodes through a Nominatim-compatible /search endpoint
// (OpenStreetMap, LocationIQ and self-hosted instances).
type NominatimClient struct {
	client  *resty.Client
	apiKey  string
	country string
}

// NewNominatimClient creates a new geocoding client.
func NewNominatimClient(cfg *NominatimConfig) *NominatimClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultNominatimURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "dispatchtracker/1.0"
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "application/json")
	client.SetTimeout(timeout)

	return &NominatimClient{
		client:  client,
		apiKey:  cfg.APIKey,
		country: cfg.CountryCode,
	}
}

type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

type nominatimError struct {
	Error string `json:"error"`
}

// Geocode implements Geocoder. It returns ErrNotFound when the service
// answers with an empty result list.
func (c *NominatimClient) Geocode(ctx context.Context, address string) (*Result, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      address,
			"format": "json",
			"limit":  "1",
		})
	if c.apiKey != "" {
		req.SetQueryParam("key", c.apiKey)
	}
	if c.country != "" {
		req.SetQueryParam("countrycodes", c.country)
	}

	var places []nominatimPlace
	var apiErr nominatimError
	resp, err := req.SetResult(&places).SetError(&apiErr).Get("/search")
	if err != nil {
		return nil, fmt.Errorf("failed to call geocoding API: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if apiErr.Error != "" {
			return nil, fmt.Errorf("geocoding API error: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("geocoding API error: status %d", resp.StatusCode())
	}

	if len(places) == 0 {
		return nil, ErrNotFound
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}
	point := geo.Point{Lat: lat, Lng: lng}
	if !point.Valid() {
		return nil, ErrNotFound
	}

	return &Result{Point: point, Confidence: p.Importance, DisplayName: p.DisplayName}, nil
}
