package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	denver  = Point{Lat: 39.7392, Lng: -104.9903}
	boulder = Point{Lat: 40.0150, Lng: -105.2705}
	aurora  = Point{Lat: 39.7294, Lng: -104.8319}
)

func TestDistanceMiles_Symmetric(t *testing.T) {
	pairs := [][2]Point{
		{denver, boulder},
		{denver, aurora},
		{{Lat: -33.86, Lng: 151.21}, {Lat: 51.50, Lng: -0.12}},
		{{Lat: 0.1, Lng: 179.9}, {Lat: 0.1, Lng: -179.9}},
	}
	for _, p := range pairs {
		assert.InDelta(t, DistanceMiles(p[0], p[1]), DistanceMiles(p[1], p[0]), 1e-9)
	}
}

func TestDistanceMiles_SamePointIsZero(t *testing.T) {
	for _, p := range []Point{denver, boulder, {Lat: 89.9, Lng: 0}} {
		assert.Equal(t, 0.0, DistanceMiles(p, p))
	}
}

func TestDistanceMiles_KnownDistance(t *testing.T) {
	// Denver to Boulder is roughly 24.5 statute miles.
	assert.InDelta(t, 24.5, DistanceMiles(denver, boulder), 0.5)

	// One degree of latitude is about 69.1 miles with R=3959.
	assert.InDelta(t, 69.1, DistanceMiles(Point{Lat: 10, Lng: 10}, Point{Lat: 11, Lng: 10}), 0.05)
}

func TestDistanceMiles_Antipodal(t *testing.T) {
	d := DistanceMiles(Point{Lat: 0, Lng: 0.0001}, Point{Lat: 0, Lng: -179.9999})
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusMiles, d, 1)
}

// offsetNorth returns a point d miles due north of p.
func offsetNorth(p Point, d float64) Point {
	return Point{Lat: p.Lat + d/EarthRadiusMiles*180/math.Pi, Lng: p.Lng}
}

func TestProximityStatus_Bands(t *testing.T) {
	tests := []struct {
		name   string
		miles  float64
		status Status
		isAt   bool
	}{
		{"same point", 0, StatusAtLocation, true},
		{"inside threshold", 0.3, StatusAtLocation, true},
		{"just inside threshold", 0.49, StatusAtLocation, true},
		{"just past threshold", 0.51, StatusNearby, false},
		{"inside double threshold", 0.99, StatusNearby, false},
		{"just past double threshold", 1.01, StatusEnRoute, false},
		{"mid en-route", 6, StatusEnRoute, false},
		{"edge of en-route", 9.99, StatusEnRoute, false},
		{"far", 10.01, StatusFar, false},
		{"very far", 120, StatusFar, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := offsetNorth(denver, tt.miles)
			got := ProximityStatus(denver, target, 0.5)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.isAt, got.IsAt)
			assert.InDelta(t, tt.miles, got.Distance, 0.01)
		})
	}
}

func TestProximityStatus_DefaultThreshold(t *testing.T) {
	got := ProximityStatus(denver, offsetNorth(denver, 0.4), 0)
	assert.Equal(t, StatusAtLocation, got.Status)
	assert.True(t, got.IsAt)
}

func TestProximityStatus_RoundsToTwoDecimals(t *testing.T) {
	got := ProximityStatus(denver, boulder, DefaultThresholdMiles)
	assert.Equal(t, got.Distance, Round2(got.Distance))
}

func TestPointValid(t *testing.T) {
	assert.True(t, denver.Valid())
	assert.False(t, Point{}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 10, Lng: -181}.Valid())
	assert.False(t, Point{Lat: math.NaN(), Lng: 1}.Valid())
	assert.False(t, Point{Lat: 1, Lng: math.Inf(1)}.Valid())
}

func TestBearingDegrees(t *testing.T) {
	origin := Point{Lat: 10, Lng: 10}
	assert.InDelta(t, 0, BearingDegrees(origin, Point{Lat: 11, Lng: 10}), 0.01)
	assert.InDelta(t, 180, BearingDegrees(origin, Point{Lat: 9, Lng: 10}), 0.01)
	assert.InDelta(t, 90, BearingDegrees(origin, Point{Lat: 10, Lng: 10.01}), 0.1)
	assert.InDelta(t, 270, BearingDegrees(origin, Point{Lat: 10, Lng: 9.99}), 0.1)
}

func TestHeadingDelta(t *testing.T) {
	assert.Equal(t, 0.0, HeadingDelta(90, 90))
	assert.Equal(t, 20.0, HeadingDelta(350, 10))
	assert.Equal(t, 180.0, HeadingDelta(0, 180))
	assert.Equal(t, 90.0, HeadingDelta(45, 315))
}
