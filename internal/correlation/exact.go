package correlation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/trevden810/dispatchtracker/internal/domain"
)

// ExactNumberStrategy pairs a vehicle with the jobs whose truck id equals a
// number taken from the vehicle name.
type ExactNumberStrategy struct{}

// Name implements Strategy.
func (ExactNumberStrategy) Name() string { return string(domain.MethodExactNumber) }

// Propose implements Strategy. Each vehicle gets one proposal per name number
// that has unclaimed jobs, in name order.
func (ExactNumberStrategy) Propose(_ context.Context, vehicles []*VehicleProfile, pool *JobPool) []Proposal {
	var proposals []Proposal
	for _, v := range vehicles {
		for _, n := range v.Numbers {
			n := n
			jobs := pool.Filter(func(j *JobProfile) bool {
				return j.HasTruck && j.TruckNumber == n
			})
			if len(jobs) == 0 {
				continue
			}
			proposals = append(proposals, Proposal{
				Vehicle:     v,
				Method:      domain.MethodExactNumber,
				Jobs:        uniformJobs(jobs, domain.ConfidenceHigh),
				ClaimAll:    true,
				Identifiers: []string{strconv.Itoa(n)},
				Details: func(RankedJob) string {
					return fmt.Sprintf("vehicle number %d equals job truck id %d", n, n)
				},
			})
		}
	}
	return proposals
}
