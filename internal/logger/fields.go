package logger

// Fields is a set of structured log fields.
type Fields map[string]interface{}

// Tracing fields, propagated through the context.
const (
	FieldRequestID = "request_id"
	FieldRunID     = "run_id"
	FieldVehicleID = "vehicle_id"
	FieldJobID     = "job_id"
	FieldComponent = "component"
	// FieldSource names the upstream system (telematics, filemaker, geocoder).
	FieldSource   = "source"
	FieldStrategy = "strategy"
)

// Metric fields, attached per line through Entry.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldSize       = "size"
	FieldStatus     = "status"
)
