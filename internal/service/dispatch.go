package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/trevden810/dispatchtracker/internal/correlation"
	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/geocode"
	"github.com/trevden810/dispatchtracker/internal/hygiene"
	"github.com/trevden810/dispatchtracker/internal/logger"
	"github.com/trevden810/dispatchtracker/internal/metrics"
	"github.com/trevden810/dispatchtracker/internal/source"
)

var (
	// ErrJobNotFound is returned when a requested job is not in the job feed.
	ErrJobNotFound = errors.New("job not found")
	// ErrGeocodingDisabled is returned by cache operations when no geocoder is configured.
	ErrGeocodingDisabled = errors.New("geocoding is disabled")
	// ErrRunHistoryDisabled is returned when run history is not recorded.
	ErrRunHistoryDisabled = errors.New("run history is disabled")
	// ErrNoSnapshot is returned when a run has no archived snapshot.
	ErrNoSnapshot = errors.New("run has no archived snapshot")
)

// RunStore persists correlation run summaries.
type RunStore interface {
	Create(ctx context.Context, run *domain.CorrelationRun) error
	ListRecent(ctx context.Context, limit int) ([]domain.CorrelationRun, error)
	GetByID(ctx context.Context, id string) (*domain.CorrelationRun, error)
}

// SnapshotArchive stores full run reports outside the database.
type SnapshotArchive interface {
	Save(ctx context.Context, runID string, at time.Time, snapshot any) (string, error)
	Load(ctx context.Context, key string, out any) error
	URL(key string) string
}

// CacheResetter clears geocoding caches.
type CacheResetter interface {
	Reset(ctx context.Context) (int64, error)
}

// DispatchConfig holds configuration for the dispatch service.
type DispatchConfig struct {
	Correlation correlation.Config
	Hygiene     hygiene.Thresholds
	Batch       geocode.BatchOptions
}

// DispatchDeps are the collaborators of the dispatch service. Vehicles and
// Jobs are required; the rest may be nil.
type DispatchDeps struct {
	Vehicles   source.VehicleSource
	Jobs       source.JobSource
	Geocoder   geocode.Geocoder
	CacheReset CacheResetter
	Runs       RunStore
	Archive    SnapshotArchive
}

// DispatchService runs correlation and hygiene passes over fresh upstream data.
type DispatchService struct {
	deps   DispatchDeps
	cfg    DispatchConfig
	engine *correlation.Engine
	now    func() time.Time
}

// NewDispatchService creates a new dispatch service.
// Parameters:
//   - deps: upstream sources and optional geocoding, history and archive.
//   - cfg: engine, hygiene and geocode batch settings.
// Returns:
//   - *DispatchService: service ready to serve passes.
func NewDispatchService(deps DispatchDeps, cfg DispatchConfig) *DispatchService {
	now := cfg.Correlation.Now
	if now == nil {
		now = time.Now
	}
	cfg.Correlation.Now = now
	return &DispatchService{
		deps:   deps,
		cfg:    cfg,
		engine: correlation.NewEngine(cfg.Correlation),
		now:    now,
	}
}

// Strategies returns the engine's strategy names in cascade order.
func (s *DispatchService) Strategies() []string {
	return s.engine.Strategies()
}

// Snapshot is one read of both upstream systems.
type Snapshot struct {
	Vehicles  []domain.Vehicle
	Jobs      []domain.Job
	Warnings  []string
	FetchedAt time.Time
}

// Fetch reads vehicles and jobs concurrently. A failing source is reported in
// Warnings and contributes an empty list; the other source is unaffected.
func (s *DispatchService) Fetch(ctx context.Context) *Snapshot {
	var (
		vehicles       []domain.Vehicle
		jobs           []domain.Job
		vehErr, jobErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		vehicles, vehErr = s.deps.Vehicles.ListVehicles(logger.SetSource(ctx, s.deps.Vehicles.Name()))
		return nil
	})
	g.Go(func() error {
		jobs, jobErr = s.deps.Jobs.ListJobs(logger.SetSource(ctx, s.deps.Jobs.Name()))
		return nil
	})
	_ = g.Wait()

	snap := &Snapshot{Vehicles: vehicles, Jobs: jobs, FetchedAt: s.now()}
	if vehErr != nil {
		logger.With(logger.Fields{logger.FieldSource: s.deps.Vehicles.Name()}).Warn(ctx, "Vehicle fetch failed: %v", vehErr)
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("vehicles unavailable: %v", vehErr))
		snap.Vehicles = []domain.Vehicle{}
	}
	if jobErr != nil {
		logger.With(logger.Fields{logger.FieldSource: s.deps.Jobs.Name()}).Warn(ctx, "Job fetch failed: %v", jobErr)
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("jobs unavailable: %v", jobErr))
		snap.Jobs = []domain.Job{}
	}
	return snap
}

// CorrelationReport is the outcome of one correlation run.
type CorrelationReport struct {
	RunID       string              `json:"runId"`
	Status      domain.RunStatus    `json:"status"`
	GeneratedAt time.Time           `json:"generatedAt"`
	DurationMs  int64               `json:"durationMs"`
	Warnings    []string            `json:"warnings,omitempty"`
	Geocoding   *geocode.BatchStats `json:"geocoding,omitempty"`
	Result      *correlation.Result `json:"result"`
	Hygiene     *hygiene.Report     `json:"hygiene,omitempty"`
	SnapshotKey string              `json:"snapshotKey,omitempty"`

	// Vehicles is the fleet snapshot the run matched against.
	Vehicles []domain.Vehicle `json:"vehicles,omitempty"`
}

// CorrelateOptions tune a single run.
type CorrelateOptions struct {
	// IncludeHygiene adds the fleet hygiene report computed on the same jobs.
	IncludeHygiene bool
}

// Correlate fetches both upstreams, geocodes job addresses, runs the engine and
// records the run. Upstream failures degrade the run to partial; the only
// error returned is the context's.
func (s *DispatchService) Correlate(ctx context.Context, opts CorrelateOptions) (*CorrelationReport, error) {
	start := time.Now()
	runID := uuid.New().String()
	ctx = logger.SetRunID(ctx, runID)

	snap := s.Fetch(ctx)
	if err := ctx.Err(); err != nil {
		metrics.CorrelationRuns.WithLabelValues(metrics.Status(err)).Inc()
		return nil, err
	}

	report := &CorrelationReport{
		RunID:       runID,
		Status:      domain.RunStatusCompleted,
		GeneratedAt: snap.FetchedAt,
		Warnings:    snap.Warnings,
		Vehicles:    snap.Vehicles,
	}
	if len(snap.Warnings) > 0 {
		report.Status = domain.RunStatusPartial
	}

	if s.deps.Geocoder != nil {
		stats := geocode.ResolveJobs(ctx, s.deps.Geocoder, snap.Jobs, s.cfg.Batch)
		report.Geocoding = &stats
	}

	report.Result = s.engine.Correlate(ctx, snap.Vehicles, snap.Jobs)
	if opts.IncludeHygiene {
		report.Hygiene = hygiene.NewAnalyzer(s.cfg.Hygiene, s.now).AnalyzeFleet(snap.Jobs)
		recordHygiene(report.Hygiene)
	}
	report.DurationMs = time.Since(start).Milliseconds()

	s.archive(ctx, report)
	s.record(ctx, report)

	metrics.CorrelationRuns.WithLabelValues(string(report.Status)).Inc()
	metrics.CorrelationDuration.Observe(time.Since(start).Seconds())
	for _, m := range report.Result.Matches {
		metrics.VehicleMatches.WithLabelValues(string(m.MatchMethod), string(m.Confidence)).Inc()
	}

	logger.With(logger.Fields{
		logger.FieldStatus:     string(report.Status),
		logger.FieldDurationMs: report.DurationMs,
		"matched":              report.Result.Summary.MatchedVehicles,
		"vehicles":             report.Result.Summary.TotalVehicles,
	}).Info(ctx, "Correlation run completed")

	return report, nil
}

func (s *DispatchService) archive(ctx context.Context, report *CorrelationReport) {
	if s.deps.Archive == nil {
		return
	}
	key, err := s.deps.Archive.Save(ctx, report.RunID, report.GeneratedAt, report)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to archive run snapshot: %v", err)
		return
	}
	report.SnapshotKey = key
}

func (s *DispatchService) record(ctx context.Context, report *CorrelationReport) {
	if s.deps.Runs == nil {
		return
	}
	sum := report.Result.Summary
	run := &domain.CorrelationRun{
		ID:              report.RunID,
		Status:          report.Status,
		TotalVehicles:   sum.TotalVehicles,
		TotalJobs:       sum.TotalJobs,
		MatchedVehicles: sum.MatchedVehicles,
		ByConfidence:    domain.CountMap(sum.ByConfidence),
		ByMethod:        domain.CountMap(sum.ByMethod),
		DurationMs:      report.DurationMs,
		Warnings:        strings.Join(report.Warnings, "; "),
		SnapshotKey:     report.SnapshotKey,
		CreatedAt:       report.GeneratedAt,
	}
	if report.Geocoding != nil {
		run.GeocodedJobs = report.Geocoding.Jobs
	}
	if err := s.deps.Runs.Create(ctx, run); err != nil {
		logger.CtxWarn(ctx, "Failed to record correlation run: %v", err)
	}
}

// Hygiene analyzes the current job feed. When jobID is non-nil the report
// covers that job only.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: optional job filter.
// Returns:
//   - *hygiene.Report: issues with counts and summary.
//   - error: upstream failure, or ErrJobNotFound for an unknown jobID.
func (s *DispatchService) Hygiene(ctx context.Context, jobID *int64) (*hygiene.Report, error) {
	jobs, err := s.deps.Jobs.ListJobs(logger.SetSource(ctx, s.deps.Jobs.Name()))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jobs: %w", err)
	}

	if jobID != nil {
		var selected []domain.Job
		for _, j := range jobs {
			if j.ID == *jobID {
				selected = append(selected, j)
				break
			}
		}
		if len(selected) == 0 {
			return nil, fmt.Errorf("job %d: %w", *jobID, ErrJobNotFound)
		}
		return hygiene.NewAnalyzer(s.cfg.Hygiene, s.now).AnalyzeFleet(selected), nil
	}

	report := hygiene.NewAnalyzer(s.cfg.Hygiene, s.now).AnalyzeFleet(jobs)
	recordHygiene(report)
	return report, nil
}

func recordHygiene(report *hygiene.Report) {
	metrics.HygieneIssues.Reset()
	for _, issue := range report.Issues {
		metrics.HygieneIssues.WithLabelValues(string(issue.Kind), string(issue.Severity)).Inc()
	}
}

// ListRuns returns recent run summaries, newest first.
func (s *DispatchService) ListRuns(ctx context.Context, limit int) ([]domain.CorrelationRun, error) {
	if s.deps.Runs == nil {
		return nil, ErrRunHistoryDisabled
	}
	return s.deps.Runs.ListRecent(ctx, limit)
}

// GetRun returns one run summary.
func (s *DispatchService) GetRun(ctx context.Context, id string) (*domain.CorrelationRun, error) {
	if s.deps.Runs == nil {
		return nil, ErrRunHistoryDisabled
	}
	return s.deps.Runs.GetByID(ctx, id)
}

// LoadSnapshot reads back the archived report of a run.
func (s *DispatchService) LoadSnapshot(ctx context.Context, run *domain.CorrelationRun) (*CorrelationReport, error) {
	if s.deps.Archive == nil || run.SnapshotKey == "" {
		return nil, ErrNoSnapshot
	}
	var report CorrelationReport
	if err := s.deps.Archive.Load(ctx, run.SnapshotKey, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// SnapshotURL returns the link for an archived snapshot, or "" when none.
func (s *DispatchService) SnapshotURL(run *domain.CorrelationRun) string {
	if s.deps.Archive == nil || run.SnapshotKey == "" {
		return ""
	}
	return s.deps.Archive.URL(run.SnapshotKey)
}

// ResetGeocodeCache clears the in-memory and persisted geocode caches.
func (s *DispatchService) ResetGeocodeCache(ctx context.Context) (int64, error) {
	if s.deps.CacheReset == nil {
		return 0, ErrGeocodingDisabled
	}
	n, err := s.deps.CacheReset.Reset(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset geocode cache: %w", err)
	}
	logger.With(logger.Fields{logger.FieldCount: n}).Info(ctx, "Geocode cache reset")
	return n, nil
}
