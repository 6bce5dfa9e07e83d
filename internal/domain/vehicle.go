package domain

import (
	"strings"

	"github.com/trevden810/dispatchtracker/internal/geo"
)

// EngineState is the engine condition reported by the telematics source.
// Values include EngineOn, EngineOff, EngineIdle, and EngineUnknown.
type EngineState string

const (
	EngineOn      EngineState = "on"
	EngineOff     EngineState = "off"
	EngineIdle    EngineState = "idle"
	EngineUnknown EngineState = "unknown"
)

// ParseEngineState maps the upstream spelling ("On", "OFF", "Idle") to an EngineState.
func ParseEngineState(s string) EngineState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "running":
		return EngineOn
	case "off":
		return EngineOff
	case "idle", "idling":
		return EngineIdle
	default:
		return EngineUnknown
	}
}

// Location is a vehicle's last known position.
type Location struct {
	geo.Point
	Address string `json:"address,omitempty"`
}

// Vehicle is a fleet vehicle as reported by the telematics source. It is
// fetched fresh on every pass and never persisted.
type Vehicle struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Location    *Location         `json:"location,omitempty"`
	EngineState EngineState       `json:"engineState"`
	SpeedMPH    float64           `json:"speed"`
	Heading     *float64          `json:"heading,omitempty"`
	DriverName  string            `json:"driverName,omitempty"`
	ExternalIDs map[string]string `json:"externalIds,omitempty"`
}

// HasPosition reports whether the vehicle has a usable GPS fix.
func (v *Vehicle) HasPosition() bool {
	return v.Location != nil && v.Location.Point.Valid()
}

// IsMoving reports whether the engine is running and the vehicle is above walking pace.
func (v *Vehicle) IsMoving() bool {
	return v.EngineState == EngineOn && v.SpeedMPH >= 5
}

// IsParked reports whether the engine is off and the vehicle is stationary.
func (v *Vehicle) IsParked() bool {
	return v.EngineState == EngineOff && v.SpeedMPH < 1
}
