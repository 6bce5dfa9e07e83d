package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RunStatus represents the outcome of a correlation run.
// Values include RunStatusCompleted and RunStatusPartial.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	// RunStatusPartial marks a run where an upstream fetch failed and the
	// engine ran on whatever data was available.
	RunStatusPartial RunStatus = "partial"
)

// CountMap stores per-key counters as JSON in the database.
type CountMap map[string]int

// Value implements the driver.Valuer interface for database serialization.
func (c CountMap) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (c *CountMap) Scan(value interface{}) error {
	if value == nil {
		*c = CountMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan CountMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, c)
}

// CorrelationRun records the summary of one correlation pass.
type CorrelationRun struct {
	ID              string    `gorm:"type:text;primaryKey" json:"id"`
	Status          RunStatus `gorm:"type:text;index:idx_runs_status;default:completed" json:"status"`
	TotalVehicles   int       `gorm:"default:0" json:"total_vehicles"`
	TotalJobs       int       `gorm:"default:0" json:"total_jobs"`
	MatchedVehicles int       `gorm:"default:0" json:"matched_vehicles"`
	GeocodedJobs    int       `gorm:"default:0" json:"geocoded_jobs"`
	ByConfidence    CountMap  `gorm:"type:text" json:"by_confidence"`
	ByMethod        CountMap  `gorm:"type:text" json:"by_method"`
	DurationMs      int64     `json:"duration_ms"`
	Warnings        string    `gorm:"type:text" json:"warnings,omitempty"`
	SnapshotKey     string    `gorm:"type:text" json:"snapshot_key,omitempty"`
	CreatedAt       time.Time `gorm:"index:idx_runs_created" json:"created_at"`
}

// TableName returns the database table name for CorrelationRun.
func (CorrelationRun) TableName() string {
	return "correlation_runs"
}

// GeocodeEntry is a persisted address resolution.
type GeocodeEntry struct {
	AddressKey  string    `gorm:"type:text;primaryKey" json:"address_key"`
	Address     string    `gorm:"type:text" json:"address"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Confidence  float64   `json:"confidence"`
	DisplayName string    `gorm:"type:text" json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `gorm:"index:idx_geocode_updated" json:"updated_at"`
}

// TableName returns the database table name for GeocodeEntry.
func (GeocodeEntry) TableName() string {
	return "geocode_entries"
}
