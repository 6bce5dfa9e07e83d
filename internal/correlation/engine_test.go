package correlation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/geo"
)

var depot = geo.Point{Lat: 39.7392, Lng: -104.9903}

func north(p geo.Point, miles float64) geo.Point {
	return geo.Point{Lat: p.Lat + miles/geo.EarthRadiusMiles*180/math.Pi, Lng: p.Lng}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC) }
	return cfg
}

func vehicle(id, name string) domain.Vehicle {
	return domain.Vehicle{ID: id, Name: name, EngineState: domain.EngineUnknown}
}

func activeJob(id int64, truck string) domain.Job {
	return domain.Job{ID: id, Status: "Active", Type: "Delivery", TruckID: truck}
}

func correlate(t *testing.T, vehicles []domain.Vehicle, jobs []domain.Job) *Result {
	t.Helper()
	res := NewEngine(testConfig()).Correlate(context.Background(), vehicles, jobs)
	require.Len(t, res.Matches, len(vehicles))
	return res
}

func TestCorrelate_ExactNumber(t *testing.T) {
	res := correlate(t,
		[]domain.Vehicle{vehicle("v1", "TRUCK 81")},
		[]domain.Job{activeJob(900001, "81")},
	)

	m := res.Matches[0]
	assert.Equal(t, domain.ConfidenceHigh, m.Confidence)
	assert.Equal(t, domain.MethodExactNumber, m.MatchMethod)
	assert.Equal(t, []int64{900001}, m.JobIDs())
	assert.Equal(t, []string{"81"}, m.MatchedIdentifiers)
	assert.NotEmpty(t, m.MatchDetails)
}

func TestCorrelate_FuzzyRejectsDistantNumber(t *testing.T) {
	res := correlate(t,
		[]domain.Vehicle{vehicle("v1", "TRUCK 81")},
		[]domain.Job{activeJob(900002, "72")},
	)

	m := res.Matches[0]
	assert.Equal(t, domain.ConfidenceNone, m.Confidence)
	assert.Equal(t, domain.MethodNone, m.MatchMethod)
	assert.Empty(t, m.AssignedJobs)
}

func TestCorrelate_RouteRequiresStrictEquality(t *testing.T) {
	job := domain.Job{ID: 1, Status: "Active", RouteID: "1"}
	res := correlate(t,
		[]domain.Vehicle{vehicle("v1", "TRUCK 1"), vehicle("v81", "TRUCK 81")},
		[]domain.Job{job},
	)

	assert.Equal(t, domain.MethodRoute, res.Matches[0].MatchMethod)
	assert.Equal(t, domain.ConfidenceMedium, res.Matches[0].Confidence)
	assert.Equal(t, []int64{1}, res.Matches[0].JobIDs())

	assert.Equal(t, "v81", res.Matches[1].VehicleID)
	assert.Equal(t, domain.ConfidenceNone, res.Matches[1].Confidence)
}

func TestCorrelate_FuzzyNumber(t *testing.T) {
	tests := []struct {
		name       string
		vehicles   []domain.Vehicle
		jobs       []domain.Job
		wantMethod []domain.MatchMethod
	}{
		{
			name:       "single neighbour matches",
			vehicles:   []domain.Vehicle{vehicle("v1", "TRUCK 81")},
			jobs:       []domain.Job{activeJob(10, "80")},
			wantMethod: []domain.MatchMethod{domain.MethodFuzzyNumber},
		},
		{
			name:       "difference of two is rejected",
			vehicles:   []domain.Vehicle{vehicle("v1", "TRUCK 81")},
			jobs:       []domain.Job{activeJob(10, "83")},
			wantMethod: []domain.MatchMethod{domain.MethodNone},
		},
		{
			name:       "neighbours on both sides are ambiguous",
			vehicles:   []domain.Vehicle{vehicle("v1", "TRUCK 81")},
			jobs:       []domain.Job{activeJob(10, "80"), activeJob(11, "82")},
			wantMethod: []domain.MatchMethod{domain.MethodNone},
		},
		{
			name:       "truck wanted by two vehicles is ambiguous",
			vehicles:   []domain.Vehicle{vehicle("v79", "TRUCK 79"), vehicle("v81", "TRUCK 81")},
			jobs:       []domain.Job{activeJob(10, "80")},
			wantMethod: []domain.MatchMethod{domain.MethodNone, domain.MethodNone},
		},
		{
			name:       "exact match elsewhere in the fleet wins first",
			vehicles:   []domain.Vehicle{vehicle("v81", "TRUCK 81"), vehicle("v80", "TRUCK 80")},
			jobs:       []domain.Job{activeJob(10, "80")},
			wantMethod: []domain.MatchMethod{domain.MethodNone, domain.MethodExactNumber},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := correlate(t, tt.vehicles, tt.jobs)
			for i, want := range tt.wantMethod {
				assert.Equal(t, want, res.Matches[i].MatchMethod, "vehicle %s", res.Matches[i].VehicleID)
			}
		})
	}
}

func TestCorrelate_FuzzyConfidence(t *testing.T) {
	res := correlate(t,
		[]domain.Vehicle{vehicle("v1", "TRUCK 81")},
		[]domain.Job{activeJob(10, "82"), activeJob(11, "82")},
	)

	m := res.Matches[0]
	assert.Equal(t, domain.ConfidenceMedium, m.Confidence)
	assert.Equal(t, []int64{10, 11}, m.JobIDs())
	assert.Equal(t, []string{"81", "82"}, m.MatchedIdentifiers)
}

func TestCorrelate_NoDuplicatePrimaryAssignment(t *testing.T) {
	res := correlate(t,
		[]domain.Vehicle{
			vehicle("a", "TRUCK 81"),
			vehicle("b", "VAN 81"),
			vehicle("c", "TRUCK 82"),
		},
		[]domain.Job{activeJob(1, "81"), activeJob(2, "81")},
	)

	assert.Equal(t, []int64{1, 2}, res.Matches[0].JobIDs())
	assert.Equal(t, domain.MethodNone, res.Matches[1].MatchMethod)
	assert.Equal(t, domain.MethodNone, res.Matches[2].MatchMethod)

	seen := make(map[int64]string)
	for _, m := range res.Matches {
		if p := m.PrimaryJob(); p != nil {
			other, dup := seen[p.ID]
			assert.False(t, dup, "job %d primary for %s and %s", p.ID, other, m.VehicleID)
			seen[p.ID] = m.VehicleID
		}
	}
	assert.Equal(t, 2, res.Summary.ClaimedJobs)
}

func TestCorrelate_VehiclesWithoutDistinctIDs(t *testing.T) {
	t.Run("empty ids", func(t *testing.T) {
		res := correlate(t,
			[]domain.Vehicle{{Name: "TRUCK 1"}, {Name: "TRUCK 81"}},
			[]domain.Job{{ID: 1, Status: "Active", RouteID: "1"}},
		)

		assert.Equal(t, "TRUCK 1", res.Matches[0].VehicleName)
		assert.Equal(t, domain.MethodRoute, res.Matches[0].MatchMethod)
		assert.Equal(t, []int64{1}, res.Matches[0].JobIDs())

		assert.Equal(t, "TRUCK 81", res.Matches[1].VehicleName)
		assert.Equal(t, domain.MethodNone, res.Matches[1].MatchMethod)
		assert.Empty(t, res.Matches[1].AssignedJobs)
		assert.Equal(t, 1, res.Summary.MatchedVehicles)
	})

	t.Run("repeated id", func(t *testing.T) {
		res := correlate(t,
			[]domain.Vehicle{vehicle("x", "TRUCK 81"), vehicle("x", "TRUCK 5")},
			[]domain.Job{activeJob(900001, "81"), activeJob(900002, "5")},
		)

		assert.Equal(t, "TRUCK 81", res.Matches[0].VehicleName)
		assert.Equal(t, []int64{900001}, res.Matches[0].JobIDs())
		assert.Equal(t, "TRUCK 5", res.Matches[1].VehicleName)
		assert.Equal(t, []int64{900002}, res.Matches[1].JobIDs())
		assert.Equal(t, 2, res.Summary.ClaimedJobs)
	})
}

func TestCorrelate_TruckFieldFromName(t *testing.T) {
	job := domain.Job{ID: 3, Status: "Active", TruckID: "  box truck  alpha! "}
	res := correlate(t, []domain.Vehicle{vehicle("v1", "Box Truck Alpha")}, []domain.Job{job})

	m := res.Matches[0]
	assert.Equal(t, domain.MethodTruck, m.MatchMethod)
	assert.Equal(t, domain.ConfidenceHigh, m.Confidence)
	assert.Equal(t, []int64{3}, m.JobIDs())
	assert.Equal(t, []string{"BOX TRUCK ALPHA"}, m.MatchedIdentifiers)
}

func TestCorrelate_RepeatedJobIDClaimedOnce(t *testing.T) {
	jobs := []domain.Job{activeJob(7, "81"), activeJob(7, "81"), activeJob(8, "82")}
	assert.Equal(t, 2, NewJobPool(jobs).Len())

	res := correlate(t,
		[]domain.Vehicle{vehicle("a", "TRUCK 81"), vehicle("b", "TRUCK 82")},
		jobs,
	)

	assert.Equal(t, []int64{7}, res.Matches[0].JobIDs())
	assert.Equal(t, []int64{8}, res.Matches[1].JobIDs())
	assert.Equal(t, 2, res.Summary.ClaimedJobs)
	assert.Equal(t, 3, res.Summary.TotalJobs)
}

func TestCorrelate_TruckFieldFromExternalID(t *testing.T) {
	v := vehicle("v1", "Box Truck")
	v.ExternalIDs = map[string]string{"serial": "t-81x"}

	res := correlate(t, []domain.Vehicle{v}, []domain.Job{activeJob(5, "T-81X")})

	m := res.Matches[0]
	assert.Equal(t, domain.MethodTruck, m.MatchMethod)
	assert.Equal(t, domain.ConfidenceHigh, m.Confidence)
	assert.Equal(t, []string{"T-81X"}, m.MatchedIdentifiers)
}

func TestCorrelate_DriverName(t *testing.T) {
	v := vehicle("v1", "Box Truck")
	v.DriverName = "John Smith"
	job := domain.Job{ID: 7, Status: "Entered", DriverName: "SMITH"}

	res := correlate(t, []domain.Vehicle{v}, []domain.Job{job})

	m := res.Matches[0]
	assert.Equal(t, domain.MethodDriver, m.MatchMethod)
	assert.Equal(t, domain.ConfidenceMedium, m.Confidence)
	assert.Contains(t, m.MatchDetails, "SMITH")
}

func TestCorrelate_TerminalJobsExcluded(t *testing.T) {
	job := activeJob(1, "81")
	job.Status = "Complete"

	res := correlate(t, []domain.Vehicle{vehicle("v1", "TRUCK 81")}, []domain.Job{job})

	assert.Equal(t, domain.MethodNone, res.Matches[0].MatchMethod)
	assert.Equal(t, 1, res.Summary.ExcludedJobs)
	assert.Equal(t, "no active jobs to match against", res.Matches[0].MatchDetails)
}

func TestCorrelate_NilInputs(t *testing.T) {
	res := NewEngine(testConfig()).Correlate(context.Background(), nil, nil)

	require.NotNil(t, res)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 0, res.Summary.TotalVehicles)
	assert.Equal(t, 0, res.Summary.ByMethod[string(domain.MethodNone)])
}

func TestCorrelate_Idempotent(t *testing.T) {
	parked := vehicle("p", "Unit")
	parked.Location = &domain.Location{Point: depot}
	parked.EngineState = domain.EngineOff

	vehicles := []domain.Vehicle{vehicle("a", "TRUCK 81"), vehicle("b", "TRUCK 44"), parked}
	near := activeJob(3, "")
	c := north(depot, 0.2)
	near.Coordinates = &c
	jobs := []domain.Job{activeJob(1, "81"), activeJob(2, "45"), near}

	engine := NewEngine(testConfig())
	first := engine.Correlate(context.Background(), vehicles, jobs)
	second := engine.Correlate(context.Background(), vehicles, jobs)

	assert.Equal(t, first, second)
	assert.Equal(t, 3, first.Summary.MatchedVehicles)
}

func TestCorrelate_InputsNotModified(t *testing.T) {
	vehicles := []domain.Vehicle{vehicle("a", "TRUCK 81")}
	jobs := []domain.Job{activeJob(1, "81"), {ID: 2, Status: "Done"}}
	vCopy := append([]domain.Vehicle(nil), vehicles...)
	jCopy := append([]domain.Job(nil), jobs...)

	correlate(t, vehicles, jobs)

	assert.Equal(t, vCopy, vehicles)
	assert.Equal(t, jCopy, jobs)
}

func TestCorrelate_StrategyOrder(t *testing.T) {
	vehicles := []domain.Vehicle{vehicle("a", "TRUCK 81")}
	jobs := []domain.Job{activeJob(1, "81")}

	engine := NewEngineWithStrategies(testConfig(), FieldMatchStrategy{}, ExactNumberStrategy{})
	res := engine.Correlate(context.Background(), vehicles, jobs)

	assert.Equal(t, []string{"field_match", "exact_number"}, engine.Strategies())
	assert.Equal(t, domain.MethodTruck, res.Matches[0].MatchMethod)
}

func TestCorrelate_Summary(t *testing.T) {
	res := correlate(t,
		[]domain.Vehicle{vehicle("a", "TRUCK 81"), vehicle("b", "TRUCK 12"), vehicle("c", "Spare")},
		[]domain.Job{activeJob(1, "81"), activeJob(2, "13"), {ID: 3, Status: "Canceled"}},
	)

	s := res.Summary
	assert.Equal(t, 3, s.TotalVehicles)
	assert.Equal(t, 3, s.TotalJobs)
	assert.Equal(t, 1, s.ExcludedJobs)
	assert.Equal(t, 2, s.MatchedVehicles)
	assert.Equal(t, 1, s.UnmatchedVehicles)
	assert.Equal(t, 1, s.ByConfidence["high"])
	assert.Equal(t, 1, s.ByConfidence["medium"])
	assert.Equal(t, 1, s.ByConfidence["none"])
	assert.Equal(t, 0, s.ByConfidence["low"])
	assert.Equal(t, 1, s.ByMethod["exact_number"])
	assert.Equal(t, 1, s.ByMethod["fuzzy_number"])
	assert.Equal(t, 0, s.ByMethod["route"])
}
