package geo

import (
	"math"
)

// EarthRadiusMiles is the mean Earth radius in statute miles.
const EarthRadiusMiles = 3959.0

// DefaultThresholdMiles is the radius within which a vehicle counts as at a location.
const DefaultThresholdMiles = 0.5

// enRouteMiles is the outer edge of the en-route band.
const enRouteMiles = 10.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p is a finite coordinate inside the WGS84 range.
// The zero point is rejected since upstream systems use it for "no fix".
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return false
	}
	return p.Lat != 0 || p.Lng != 0
}

// Status is the proximity band of a vehicle relative to a target.
type Status string

const (
	StatusAtLocation Status = "at-location"
	StatusNearby     Status = "nearby"
	StatusEnRoute    Status = "en-route"
	StatusFar        Status = "far"
)

// Proximity is the result of ProximityStatus.
type Proximity struct {
	IsAt     bool    `json:"isAt"`
	Distance float64 `json:"distance"`
	Status   Status  `json:"status"`
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// DistanceMiles returns the great-circle distance between a and b using the
// haversine formula.
func DistanceMiles(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ProximityStatus classifies the distance between vehicle and target into one
// of four bands. A non-positive threshold falls back to DefaultThresholdMiles.
func ProximityStatus(vehicle, target Point, thresholdMiles float64) Proximity {
	if thresholdMiles <= 0 {
		thresholdMiles = DefaultThresholdMiles
	}
	d := DistanceMiles(vehicle, target)

	var status Status
	switch {
	case d <= thresholdMiles:
		status = StatusAtLocation
	case d <= thresholdMiles*2:
		status = StatusNearby
	case d <= enRouteMiles:
		status = StatusEnRoute
	default:
		status = StatusFar
	}

	return Proximity{
		IsAt:     d <= thresholdMiles,
		Distance: Round2(d),
		Status:   status,
	}
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BearingDegrees returns the initial compass bearing from a to b in [0, 360).
func BearingDegrees(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
}

// HeadingDelta returns the smallest angle between two compass headings, in [0, 180].
func HeadingDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
