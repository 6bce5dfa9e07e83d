package filemaker

import (
	"strconv"
	"strings"
	"time"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/ident"
)

// Layout field names.
const (
	fieldJobID      = "_kp_job_id"
	fieldStatus     = "job_status"
	fieldType       = "job_type"
	fieldTruckID    = "*kf*trucks_id"
	fieldRouteID    = "_kf_route_id"
	fieldDriverID   = "_kf_driver_id"
	fieldDriverName = "driver_name"
	fieldCustomer   = "Customer_C1"
	fieldAddress    = "address_C1"
	fieldJobDate    = "job_date"
	fieldArrival    = "time_arival"
	fieldCompletion = "time_complete"
	fieldDueDate    = "due_date"
)

const (
	dateLayout        = "01/02/2006"
	timestampLayout   = "01/02/2006 15:04:05"
	timeOfDayLayout   = "15:04:05"
	shortTimeLayout   = "15:04"
	isoDateLayout     = "2006-01-02"
	isoDateTimeLayout = "2006-01-02T15:04:05"
)

func (c *Client) toJob(fields map[string]any) (domain.Job, bool) {
	id, ok := parseID(fieldString(fields, fieldJobID))
	if !ok {
		return domain.Job{}, false
	}

	loc := c.cfg.Location
	job := domain.Job{
		ID:         id,
		Status:     fieldString(fields, fieldStatus),
		Type:       fieldString(fields, fieldType),
		TruckID:    normalizeID(fieldString(fields, fieldTruckID)),
		RouteID:    normalizeID(fieldString(fields, fieldRouteID)),
		DriverID:   normalizeID(fieldString(fields, fieldDriverID)),
		DriverName: fieldString(fields, fieldDriverName),
		Customer:   fieldString(fields, fieldCustomer),
		Address:    fieldString(fields, fieldAddress),
	}

	job.Date = parseDate(fieldString(fields, fieldJobDate), loc)
	job.ArrivalTime = parseMoment(fieldString(fields, fieldArrival), job.Date, loc)
	job.CompletionTime = parseMoment(fieldString(fields, fieldCompletion), job.Date, loc)
	job.DueDate = parseDue(fieldString(fields, fieldDueDate), loc)
	return job, true
}

// fieldString renders a field value as text. The Data API returns numbers
// for number fields and strings for everything else.
func fieldString(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func parseID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, id > 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) || f <= 0 {
		return 0, false
	}
	return int64(f), true
}

// normalizeID turns numeric identifiers such as "81.0" into "81" and leaves
// anything else as given.
func normalizeID(s string) string {
	if n, ok := ident.ParseNumber(s); ok {
		return strconv.Itoa(n)
	}
	return s
}

func parseDate(s string, loc *time.Location) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{dateLayout, isoDateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	return nil
}

// parseMoment parses a timestamp, or a time of day anchored to the job date.
func parseMoment(s string, date *time.Time, loc *time.Location) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{timestampLayout, isoDateTimeLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	if date == nil {
		return nil
	}
	for _, layout := range []string{timeOfDayLayout, shortTimeLayout} {
		if tod, err := time.Parse(layout, s); err == nil {
			t := time.Date(date.Year(), date.Month(), date.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc)
			return &t
		}
	}
	return nil
}

// parseDue treats a date-only due date as due at the end of that day.
func parseDue(s string, loc *time.Location) *time.Time {
	if t := parseMoment(s, nil, loc); t != nil {
		return t
	}
	d := parseDate(s, loc)
	if d == nil {
		return nil
	}
	end := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
	return &end
}
