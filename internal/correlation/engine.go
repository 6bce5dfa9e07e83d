package correlation

import (
	"context"
	"fmt"
	"time"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/geo"
	"github.com/trevden810/dispatchtracker/internal/logger"
)

// Config holds the distance bands and limits used by the strategies.
type Config struct {
	AtLocationMiles        float64
	VeryCloseMiles         float64
	NearbyMiles            float64
	MaxDistanceMiles       float64
	ParkedRadiusMiles      float64
	ApproachMiles          float64
	ApproachHeadingDegrees float64
	MaxCandidates          int
	// Now is the reference clock for schedule factors. Nil means time.Now.
	Now func() time.Time
}

// DefaultConfig returns the standard correlation settings.
// Parameters: none.
// Returns:
//   - Config: thresholds in miles and a three-candidate proximity limit.
func DefaultConfig() Config {
	return Config{
		AtLocationMiles:        geo.DefaultThresholdMiles,
		VeryCloseMiles:         2,
		NearbyMiles:            5,
		MaxDistanceMiles:       50,
		ParkedRadiusMiles:      1,
		ApproachMiles:          5,
		ApproachHeadingDegrees: 45,
		MaxCandidates:          3,
	}
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// DefaultStrategies returns the strategy cascade in its standard order:
// exact number, fuzzy number, identifier fields, location proximity.
func DefaultStrategies(cfg Config) []Strategy {
	return []Strategy{
		ExactNumberStrategy{},
		FuzzyNumberStrategy{},
		FieldMatchStrategy{},
		NewProximityStrategy(cfg),
	}
}

// Engine pairs vehicles with jobs by running strategies in order. Each
// vehicle is matched by the first strategy that yields an acceptable match,
// and no job is claimed by two vehicles within one run.
type Engine struct {
	cfg        Config
	strategies []Strategy
}

// NewEngine creates an engine with the default strategy cascade.
func NewEngine(cfg Config) *Engine {
	return NewEngineWithStrategies(cfg, DefaultStrategies(cfg)...)
}

// NewEngineWithStrategies creates an engine running the given strategies in order.
func NewEngineWithStrategies(cfg Config, strategies ...Strategy) *Engine {
	return &Engine{cfg: cfg, strategies: strategies}
}

// Strategies returns the strategy names in execution order.
func (e *Engine) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Summary aggregates a correlation result.
type Summary struct {
	TotalVehicles     int            `json:"totalVehicles"`
	TotalJobs         int            `json:"totalJobs"`
	ExcludedJobs      int            `json:"excludedJobs"`
	MatchedVehicles   int            `json:"matchedVehicles"`
	UnmatchedVehicles int            `json:"unmatchedVehicles"`
	ClaimedJobs       int            `json:"claimedJobs"`
	ByConfidence      map[string]int `json:"byConfidence"`
	ByMethod          map[string]int `json:"byMethod"`
}

// Result is the output of one correlation pass. Matches holds exactly one
// entry per input vehicle, in input order.
type Result struct {
	Matches []domain.MatchResult `json:"matches"`
	Summary Summary              `json:"summary"`
}

// Correlate matches every vehicle against the jobs. It never fails: missing
// data degrades a vehicle to an unmatched result. Nil inputs are treated as
// empty. Neither input slice is modified.
func (e *Engine) Correlate(ctx context.Context, vehicles []domain.Vehicle, jobs []domain.Job) *Result {
	start := time.Now()
	pool := NewJobPool(jobs)

	profiles := make([]*VehicleProfile, len(vehicles))
	for i := range vehicles {
		profiles[i] = NewVehicleProfile(&vehicles[i])
	}

	// Keyed by profile, not vehicle id: ids may be empty or repeated.
	matched := make(map[*VehicleProfile]*domain.MatchResult, len(vehicles))
	pending := profiles

	for _, s := range e.strategies {
		if len(pending) == 0 || len(pool.Available()) == 0 {
			break
		}
		sctx := logger.SetStrategy(ctx, s.Name())
		for _, p := range s.Propose(sctx, pending, pool) {
			if _, done := matched[p.Vehicle]; done {
				continue
			}
			if m := e.apply(sctx, pool, p); m != nil {
				matched[p.Vehicle] = m
			}
		}
		pending = unmatchedProfiles(pending, matched)
	}

	res := &Result{Matches: make([]domain.MatchResult, len(profiles))}
	for i, p := range profiles {
		if m, ok := matched[p]; ok {
			res.Matches[i] = *m
			continue
		}
		res.Matches[i] = unmatchedResult(p, pool.Len())
	}
	res.Summary = summarize(res.Matches, len(jobs), len(jobs)-pool.Len(), pool.Claimed())

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldCount:      res.Summary.MatchedVehicles,
		"total_vehicles":       res.Summary.TotalVehicles,
		"total_jobs":           res.Summary.TotalJobs,
	}).Info(ctx, "Correlation pass finished")

	return res
}

// apply turns a proposal into a match, enforcing claims. It returns nil when
// every job in the proposal was already claimed.
func (e *Engine) apply(ctx context.Context, pool *JobPool, p Proposal) *domain.MatchResult {
	var ranked []RankedJob
	for _, rj := range p.Jobs {
		if _, taken := pool.ClaimedBy(rj.Job.Job.ID); taken {
			continue
		}
		ranked = append(ranked, rj)
	}
	if len(ranked) == 0 {
		logger.FromContext(ctx).WithFields(logger.Fields{
			logger.FieldVehicleID: p.Vehicle.Vehicle.ID,
			"method":              p.Method,
		}).Debug("Proposal dropped, all jobs already claimed")
		return nil
	}
	if p.Limit > 0 && len(ranked) > p.Limit {
		ranked = ranked[:p.Limit]
	}

	primary := ranked[0]
	v := p.Vehicle.Vehicle
	m := &domain.MatchResult{
		VehicleID:          v.ID,
		VehicleName:        v.Name,
		Confidence:         primary.Confidence,
		MatchMethod:        p.Method,
		MatchedIdentifiers: p.Identifiers,
		Distance:           primary.Distance,
		MatchingFactors:    primary.Factors,
		AssignedJobs:       make([]domain.Job, len(ranked)),
	}
	for i, rj := range ranked {
		m.AssignedJobs[i] = *rj.Job.Job
	}
	if p.Details != nil {
		m.MatchDetails = p.Details(primary)
	}

	if p.ClaimAll {
		for _, rj := range ranked {
			pool.claim(rj.Job.Job.ID, v.ID)
		}
	} else {
		pool.claim(primary.Job.Job.ID, v.ID)
		for _, rj := range ranked {
			c := domain.Candidate{JobID: rj.Job.Job.ID, Score: rj.Score, Factors: rj.Factors}
			if rj.Distance != nil {
				c.Distance = *rj.Distance
			}
			m.Candidates = append(m.Candidates, c)
		}
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldVehicleID: v.ID,
		logger.FieldJobID:     primary.Job.Job.ID,
		"confidence":          m.Confidence,
		"method":              m.MatchMethod,
		"assigned":            len(m.AssignedJobs),
	}).Debug("Vehicle matched")

	return m
}

func unmatchedProfiles(profiles []*VehicleProfile, matched map[*VehicleProfile]*domain.MatchResult) []*VehicleProfile {
	out := make([]*VehicleProfile, 0, len(profiles))
	for _, p := range profiles {
		if _, ok := matched[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func unmatchedResult(p *VehicleProfile, activeJobs int) domain.MatchResult {
	var details string
	switch {
	case activeJobs == 0:
		details = "no active jobs to match against"
	case len(p.Identifiers) == 0 && !p.Vehicle.HasPosition():
		details = fmt.Sprintf("no identifiers in name %q and no GPS position", p.Vehicle.Name)
	default:
		details = fmt.Sprintf("no job matched identifiers %v or location", p.Identifiers)
	}
	return domain.MatchResult{
		VehicleID:          p.Vehicle.ID,
		VehicleName:        p.Vehicle.Name,
		Confidence:         domain.ConfidenceNone,
		MatchMethod:        domain.MethodNone,
		AssignedJobs:       []domain.Job{},
		MatchDetails:       details,
		MatchedIdentifiers: p.Identifiers,
	}
}

func summarize(matches []domain.MatchResult, totalJobs, excluded, claimed int) Summary {
	s := Summary{
		TotalVehicles: len(matches),
		TotalJobs:     totalJobs,
		ExcludedJobs:  excluded,
		ClaimedJobs:   claimed,
		ByConfidence:  make(map[string]int, len(domain.Confidences)),
		ByMethod:      make(map[string]int, len(domain.MatchMethods)),
	}
	for _, c := range domain.Confidences {
		s.ByConfidence[string(c)] = 0
	}
	for _, m := range domain.MatchMethods {
		s.ByMethod[string(m)] = 0
	}
	for _, m := range matches {
		s.ByConfidence[string(m.Confidence)]++
		s.ByMethod[string(m.MatchMethod)]++
		if m.MatchMethod != domain.MethodNone {
			s.MatchedVehicles++
		}
	}
	s.UnmatchedVehicles = s.TotalVehicles - s.MatchedVehicles
	return s
}
