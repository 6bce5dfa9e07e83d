package domain

import "time"

// IssueKind names a schedule-hygiene rule.
type IssueKind string

const (
	IssueIncompleteAfterArrival IssueKind = "incomplete_after_arrival"
	IssueStatusLag              IssueKind = "status_lag"
	IssueOverdue                IssueKind = "overdue"
	IssueMissingData            IssueKind = "missing_data"
	IssueLongIdle               IssueKind = "long_idle"
)

// IssueKinds lists every kind in rule evaluation order.
var IssueKinds = []IssueKind{
	IssueIncompleteAfterArrival,
	IssueStatusLag,
	IssueOverdue,
	IssueMissingData,
	IssueLongIdle,
}

// Severity grades a hygiene issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Severities lists severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityWarning, SeverityInfo}

// Issue is one inconsistency detected on a job. A job may carry several.
type Issue struct {
	Kind         IssueKind `json:"kind"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	JobID        int64     `json:"jobId"`
	Customer     string    `json:"customer,omitempty"`
	HoursElapsed float64   `json:"hoursElapsed,omitempty"`
	ActionNeeded bool      `json:"actionNeeded"`
	DetectedAt   time.Time `json:"detectedAt"`
}
