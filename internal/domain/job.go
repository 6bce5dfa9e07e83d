package domain

import (
	"strings"
	"time"

	"github.com/trevden810/dispatchtracker/internal/geo"
)

// Job is a dispatch work order read from the job-management database. Jobs
// are a read-only snapshot per request.
type Job struct {
	ID             int64      `json:"id"`
	Status         string     `json:"status"`
	Type           string     `json:"type"`
	TruckID        string     `json:"truckId,omitempty"`
	RouteID        string     `json:"routeId,omitempty"`
	DriverID       string     `json:"driverId,omitempty"`
	DriverName     string     `json:"driverName,omitempty"`
	Customer       string     `json:"customer,omitempty"`
	Address        string     `json:"address,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
	ArrivalTime    *time.Time `json:"arrivalTime,omitempty"`
	CompletionTime *time.Time `json:"completionTime,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`

	// Coordinates is filled in by geocoding the address; nil when unresolved.
	Coordinates *geo.Point `json:"coordinates,omitempty"`
}

// terminalStatuses end a job's lifecycle. Keys are lowercased.
var terminalStatuses = map[string]struct{}{
	"complete":     {},
	"completed":    {},
	"canceled":     {},
	"cancelled":    {},
	"done":         {},
	"re-scheduled": {},
	"rescheduled":  {},
	"attempted":    {},
}

// inProgressStatuses are statuses of a job that is still being worked.
var inProgressStatuses = map[string]struct{}{
	"active":      {},
	"entered":     {},
	"in progress": {},
	"in-progress": {},
	"dispatched":  {},
	"assigned":    {},
	"scheduled":   {},
	"en route":    {},
	"en-route":    {},
	"arrived":     {},
	"on site":     {},
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsTerminalStatus reports whether status ends a job (Complete, Canceled,
// Done, Re-scheduled, Attempted and their spelling variants).
func IsTerminalStatus(status string) bool {
	_, ok := terminalStatuses[normalizeStatus(status)]
	return ok
}

// IsInProgressStatus reports whether status belongs to a job still being worked.
func IsInProgressStatus(status string) bool {
	_, ok := inProgressStatuses[normalizeStatus(status)]
	return ok
}

// IsTerminal reports whether the job's status is terminal.
func (j *Job) IsTerminal() bool {
	return IsTerminalStatus(j.Status)
}

// IsInProgress reports whether the job's status is an in-progress status.
func (j *Job) IsInProgress() bool {
	return IsInProgressStatus(j.Status)
}
