package correlation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/geo"
)

// Proximity factor names reported in MatchResult.MatchingFactors.
const (
	FactorAtLocation        = "at_location"
	FactorVeryClose         = "very_close"
	FactorNearby            = "nearby"
	FactorParkedAtLocation  = "parked_at_location"
	FactorApproaching       = "approaching"
	FactorScheduledToday    = "scheduled_today"
	FactorScheduledTomorrow = "scheduled_tomorrow"
	FactorTypeMatch         = "type_match"
	FactorRouteIDMatch      = "route_id_match"
	FactorDriverIDMatch     = "driver_id_match"
)

var factorScores = map[string]int{
	FactorAtLocation:        50,
	FactorParkedAtLocation:  40,
	FactorRouteIDMatch:      40,
	FactorDriverIDMatch:     40,
	FactorVeryClose:         30,
	FactorApproaching:       20,
	FactorNearby:            15,
	FactorScheduledToday:    15,
	FactorTypeMatch:         10,
	FactorScheduledTomorrow: 5,
}

var strongFactors = map[string]bool{
	FactorAtLocation:       true,
	FactorParkedAtLocation: true,
	FactorRouteIDMatch:     true,
	FactorDriverIDMatch:    true,
}

// ProximityStrategy is the fallback that pairs a positioned vehicle with the
// geocoded jobs around it. Only the top-ranked job is claimed; the rest are
// reported as candidates.
type ProximityStrategy struct {
	cfg Config
}

// NewProximityStrategy creates a proximity strategy using cfg's bands.
func NewProximityStrategy(cfg Config) *ProximityStrategy {
	return &ProximityStrategy{cfg: cfg}
}

// Name implements Strategy.
func (s *ProximityStrategy) Name() string { return string(domain.MethodLocationProximity) }

// Propose implements Strategy.
func (s *ProximityStrategy) Propose(_ context.Context, vehicles []*VehicleProfile, pool *JobPool) []Proposal {
	jobs := pool.Filter(func(j *JobProfile) bool {
		return j.Job.Coordinates != nil && j.Job.Coordinates.Valid()
	})
	if len(jobs) == 0 {
		return nil
	}
	now := s.cfg.now()

	var proposals []Proposal
	for _, v := range vehicles {
		if !v.Vehicle.HasPosition() {
			continue
		}
		ranked := s.Rank(v, jobs, now)
		if len(ranked) == 0 {
			continue
		}
		proposals = append(proposals, Proposal{
			Vehicle:  v,
			Method:   domain.MethodLocationProximity,
			Jobs:     ranked,
			ClaimAll: false,
			Limit:    s.cfg.MaxCandidates,
			Details: func(primary RankedJob) string {
				return fmt.Sprintf("%.2f miles from job %d (%s)",
					*primary.Distance, primary.Job.Job.ID, strings.Join(primary.Factors, ", "))
			},
		})
	}
	return proposals
}

// Rank scores every job within MaxDistanceMiles of the vehicle and returns
// those with at least one factor, best first: highest score, then nearest,
// then lowest job id.
func (s *ProximityStrategy) Rank(v *VehicleProfile, jobs []*JobProfile, now time.Time) []RankedJob {
	pos := v.Vehicle.Location.Point
	var out []RankedJob
	for _, j := range jobs {
		d := geo.DistanceMiles(pos, *j.Job.Coordinates)
		if d > s.cfg.MaxDistanceMiles {
			continue
		}
		factors := s.factors(v, j, d, now)
		if len(factors) == 0 {
			continue
		}
		dist := geo.Round2(d)
		rj := RankedJob{Job: j, Distance: &dist, Factors: factors, Confidence: domain.ConfidenceMedium}
		for _, f := range factors {
			rj.Score += factorScores[f]
			if strongFactors[f] {
				rj.Confidence = domain.ConfidenceHigh
			}
		}
		out = append(out, rj)
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		if *out[a].Distance != *out[b].Distance {
			return *out[a].Distance < *out[b].Distance
		}
		return out[a].Job.Job.ID < out[b].Job.Job.ID
	})
	return out
}

func (s *ProximityStrategy) factors(v *VehicleProfile, j *JobProfile, d float64, now time.Time) []string {
	var f []string
	switch {
	case d <= s.cfg.AtLocationMiles:
		f = append(f, FactorAtLocation)
	case d <= s.cfg.VeryCloseMiles:
		f = append(f, FactorVeryClose)
	case d <= s.cfg.NearbyMiles:
		f = append(f, FactorNearby)
	}

	if v.Vehicle.IsParked() && d <= s.cfg.ParkedRadiusMiles {
		f = append(f, FactorParkedAtLocation)
	}
	if s.approaching(v.Vehicle, *j.Job.Coordinates, d) {
		f = append(f, FactorApproaching)
	}

	if j.Job.Date != nil {
		jy, jm, jd := j.Job.Date.In(now.Location()).Date()
		ny, nm, nd := now.Date()
		ty, tm, td := now.AddDate(0, 0, 1).Date()
		switch {
		case jy == ny && jm == nm && jd == nd:
			f = append(f, FactorScheduledToday)
		case jy == ty && jm == tm && jd == td:
			f = append(f, FactorScheduledTomorrow)
		}
	}

	if sharesKeyword(v.Keywords, j.Keywords) {
		f = append(f, FactorTypeMatch)
	}
	if v.HasIdentifier(j.RouteKey) {
		f = append(f, FactorRouteIDMatch)
	}
	if v.HasIdentifier(j.DriverKey) {
		f = append(f, FactorDriverIDMatch)
	}
	return f
}

// approaching reports whether a moving vehicle is close to the target and,
// when its heading is known, pointed toward it.
func (s *ProximityStrategy) approaching(v *domain.Vehicle, target geo.Point, d float64) bool {
	if !v.IsMoving() || d <= s.cfg.AtLocationMiles || d > s.cfg.ApproachMiles {
		return false
	}
	if v.Heading == nil {
		return true
	}
	bearing := geo.BearingDegrees(v.Location.Point, target)
	return geo.HeadingDelta(*v.Heading, bearing) <= s.cfg.ApproachHeadingDegrees
}

func sharesKeyword(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
