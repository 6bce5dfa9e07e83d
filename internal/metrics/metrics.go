// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dispatchtracker"

// Registry is the registry served by Handler. Collectors are registered in init.
var Registry = prometheus.NewRegistry()

var (
	// CorrelationRuns counts correlation passes by outcome.
	// status: completed/partial/failed
	CorrelationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "correlation_runs_total",
			Help:      "Total number of correlation passes.",
		},
		[]string{"status"},
	)

	// CorrelationDuration records the wall time of a full pass, fetch included.
	CorrelationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "correlation_duration_seconds",
			Help:      "Duration of a correlation pass including upstream fetches.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// VehicleMatches counts per-vehicle outcomes of correlation passes.
	VehicleMatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vehicle_matches_total",
			Help:      "Vehicle match outcomes by method and confidence.",
		},
		[]string{"method", "confidence"},
	)

	// GeocodeLookups counts address lookups by the tier that answered.
	// tier: memory/database/upstream, result: hit/miss/error
	GeocodeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_lookups_total",
			Help:      "Geocode lookups by cache tier and result.",
		},
		[]string{"tier", "result"},
	)

	// UpstreamRequests counts calls to the telematics and job systems.
	// source: telematics/filemaker, status: success/failed
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream fetches by source and status.",
		},
		[]string{"source", "status"},
	)

	// HygieneIssues is the issue count of the most recent hygiene report.
	HygieneIssues = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hygiene_issues",
			Help:      "Schedule hygiene issues in the latest report by kind and severity.",
		},
		[]string{"kind", "severity"},
	)

	// HTTPRequests counts served API requests.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	// HTTPLatency records API request latency.
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		CorrelationRuns,
		CorrelationDuration,
		VehicleMatches,
		GeocodeLookups,
		UpstreamRequests,
		HygieneIssues,
		HTTPRequests,
		HTTPLatency,
	)
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Status returns the label value for an operation outcome.
func Status(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
