// Package geocode resolves job addresses to coordinates through a tiered
// cache in front of an HTTP geocoding service.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/trevden810/dispatchtracker/internal/geo"
)

// ErrNotFound is returned when the upstream service has no result for an address.
var ErrNotFound = errors.New("geocode: address not found")

// Result is a resolved address.
type Result struct {
	Point       geo.Point `json:"point"`
	Confidence  float64   `json:"confidence"`
	DisplayName string    `json:"displayName,omitempty"`
}

// Geocoder resolves a free-text address.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// AddressKey normalizes an address for cache lookups: lowercased, trimmed,
// and with whitespace runs collapsed.
func AddressKey(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}
