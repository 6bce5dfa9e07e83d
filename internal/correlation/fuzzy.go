package correlation

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/logger"
)

// FuzzyTolerance is the only truck-number difference the fuzzy strategy accepts.
const FuzzyTolerance = 1

// FuzzyNumberStrategy pairs a vehicle with jobs whose truck id is exactly one
// away from a number in the vehicle name. A vehicle with more than one such
// truck id, or a truck id wanted by more than one vehicle, is left unmatched.
type FuzzyNumberStrategy struct{}

// Name implements Strategy.
func (FuzzyNumberStrategy) Name() string { return string(domain.MethodFuzzyNumber) }

type fuzzyPick struct {
	vehicle *VehicleProfile
	from    int
	truck   int
}

// Propose implements Strategy.
func (FuzzyNumberStrategy) Propose(ctx context.Context, vehicles []*VehicleProfile, pool *JobPool) []Proposal {
	trucks := make(map[int][]*JobProfile)
	for _, j := range pool.Available() {
		if j.HasTruck {
			trucks[j.TruckNumber] = append(trucks[j.TruckNumber], j)
		}
	}
	if len(trucks) == 0 {
		return nil
	}

	log := logger.FromContext(ctx)
	var picks []fuzzyPick
	wanted := make(map[int]int)

	for _, v := range vehicles {
		candidates := make(map[int]int) // truck number -> vehicle number it is near
		for _, n := range v.Numbers {
			for _, t := range []int{n - FuzzyTolerance, n + FuzzyTolerance} {
				if _, ok := trucks[t]; !ok || v.HasNumber(t) {
					continue
				}
				if _, dup := candidates[t]; !dup {
					candidates[t] = n
				}
			}
		}

		switch len(candidates) {
		case 0:
			continue
		case 1:
			for t, n := range candidates {
				picks = append(picks, fuzzyPick{vehicle: v, from: n, truck: t})
				wanted[t]++
			}
		default:
			log.WithFields(logger.Fields{
				logger.FieldVehicleID: v.Vehicle.ID,
				"vehicle_name":        v.Vehicle.Name,
				"candidates":          sortedKeys(candidates),
			}).Info("Fuzzy match ambiguous, leaving vehicle unmatched")
		}
	}

	var proposals []Proposal
	for _, p := range picks {
		p := p
		if wanted[p.truck] > 1 {
			log.WithFields(logger.Fields{
				logger.FieldVehicleID: p.vehicle.Vehicle.ID,
				"vehicle_name":        p.vehicle.Vehicle.Name,
				"truck_id":            p.truck,
				"contenders":          wanted[p.truck],
			}).Info("Fuzzy truck id wanted by several vehicles, skipping")
			continue
		}
		proposals = append(proposals, Proposal{
			Vehicle:     p.vehicle,
			Method:      domain.MethodFuzzyNumber,
			Jobs:        uniformJobs(trucks[p.truck], domain.ConfidenceMedium),
			ClaimAll:    true,
			Identifiers: []string{strconv.Itoa(p.from), strconv.Itoa(p.truck)},
			Details: func(RankedJob) string {
				return fmt.Sprintf("vehicle number %d is one away from job truck id %d", p.from, p.truck)
			},
		})
	}
	return proposals
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
