package correlation

import (
	"context"

	"github.com/trevden810/dispatchtracker/internal/domain"
)

// Strategy proposes vehicle-job pairings. Implementations read the pool but
// never claim from it; the Engine applies proposals in order and enforces
// claims, so strategies can be tested alone and reordered freely.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Propose returns proposals for the given still-unmatched vehicles.
	// A vehicle may appear in several proposals, most preferred first; the
	// engine keeps the first one that still has unclaimed jobs.
	Propose(ctx context.Context, vehicles []*VehicleProfile, pool *JobPool) []Proposal
}

// RankedJob is one job inside a proposal with the evidence that supports it.
type RankedJob struct {
	Job        *JobProfile
	Confidence domain.Confidence
	Distance   *float64
	Score      int
	Factors    []string
}

// Proposal is a suggested match for one vehicle.
type Proposal struct {
	Vehicle *VehicleProfile
	Method  domain.MatchMethod
	// Jobs are ranked best first. The first unclaimed one becomes the
	// primary assignment.
	Jobs []RankedJob
	// ClaimAll claims every surviving job; otherwise only the primary one is
	// claimed and the rest are reported as candidates.
	ClaimAll bool
	// Limit caps the number of jobs kept after claim filtering; zero keeps all.
	Limit       int
	Identifiers []string
	// Details renders the human-readable explanation for the surviving
	// primary job.
	Details func(primary RankedJob) string
}

func uniformJobs(jobs []*JobProfile, confidence domain.Confidence) []RankedJob {
	out := make([]RankedJob, len(jobs))
	for i, j := range jobs {
		out[i] = RankedJob{Job: j, Confidence: confidence}
	}
	return out
}
