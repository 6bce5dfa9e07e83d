package correlation

import (
	"context"
	"fmt"

	"github.com/trevden810/dispatchtracker/internal/domain"
)

// FieldMatchStrategy compares vehicle identifiers against the job's truck,
// route and driver fields with strict string equality (the truck field also
// against the cleaned vehicle name and external ids), then falls back to a
// loose driver-name comparison. A vehicle named "TRUCK 81" never matches
// route "1".
type FieldMatchStrategy struct{}

// Name implements Strategy.
func (FieldMatchStrategy) Name() string { return "field_match" }

type fieldRule struct {
	method     domain.MatchMethod
	confidence domain.Confidence
	label      string
	ids        func(*VehicleProfile) []string
	matches    func(j *JobProfile, id string) bool
}

func identifiers(v *VehicleProfile) []string { return v.Identifiers }

var fieldRules = []fieldRule{
	{
		domain.MethodTruck, domain.ConfidenceHigh, "truck id",
		func(v *VehicleProfile) []string { return v.TruckKeys },
		func(j *JobProfile, id string) bool { return j.TruckKey == id || j.TruckName == id },
	},
	{
		domain.MethodRoute, domain.ConfidenceMedium, "route id", identifiers,
		func(j *JobProfile, id string) bool { return j.RouteKey == id },
	},
	{
		domain.MethodDriver, domain.ConfidenceMedium, "driver id", identifiers,
		func(j *JobProfile, id string) bool { return j.DriverKey == id },
	},
}

// Propose implements Strategy.
func (FieldMatchStrategy) Propose(_ context.Context, vehicles []*VehicleProfile, pool *JobPool) []Proposal {
	var proposals []Proposal
	for _, v := range vehicles {
		for _, rule := range fieldRules {
			rule := rule
			for _, id := range rule.ids(v) {
				id := id
				jobs := pool.Filter(func(j *JobProfile) bool { return rule.matches(j, id) })
				if len(jobs) == 0 {
					continue
				}
				proposals = append(proposals, Proposal{
					Vehicle:     v,
					Method:      rule.method,
					Jobs:        uniformJobs(jobs, rule.confidence),
					ClaimAll:    true,
					Identifiers: []string{id},
					Details: func(RankedJob) string {
						return fmt.Sprintf("vehicle identifier %q equals job %s", id, rule.label)
					},
				})
			}
		}

		if v.Vehicle.DriverName == "" {
			continue
		}
		jobs := pool.Filter(func(j *JobProfile) bool {
			return driverNamesMatch(v.Vehicle.DriverName, j.Job.DriverName)
		})
		if len(jobs) == 0 {
			continue
		}
		driver := v.Vehicle.DriverName
		proposals = append(proposals, Proposal{
			Vehicle:     v,
			Method:      domain.MethodDriver,
			Jobs:        uniformJobs(jobs, domain.ConfidenceMedium),
			ClaimAll:    true,
			Identifiers: []string{driver},
			Details: func(primary RankedJob) string {
				return fmt.Sprintf("vehicle driver %q matches job driver %q", driver, primary.Job.Job.DriverName)
			},
		})
	}
	return proposals
}
