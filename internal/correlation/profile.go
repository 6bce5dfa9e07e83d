package correlation

import (
	"sort"
	"strconv"
	"strings"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/ident"
)

// VehicleProfile is a vehicle with its identifiers already extracted, so
// strategies work on normalized integers and keys only.
type VehicleProfile struct {
	Vehicle *domain.Vehicle
	// Numbers are the integers found in the display name, in order.
	Numbers []int
	// Identifiers are strict-equality keys: the name numbers as decimal
	// strings followed by the external id values.
	Identifiers []string
	// Keywords are the words of the display name, used against job types.
	Keywords []string
	// TruckKeys are compared against a job's truck field: the identifiers
	// plus the cleaned display name and cleaned external ids.
	TruckKeys []string
}

// NewVehicleProfile extracts identifiers from v.
func NewVehicleProfile(v *domain.Vehicle) *VehicleProfile {
	p := &VehicleProfile{
		Vehicle:  v,
		Numbers:  ident.ExtractNumbers(v.Name),
		Keywords: ident.Keywords(v.Name),
	}

	seen := make(map[string]struct{})
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		p.Identifiers = append(p.Identifiers, id)
	}

	for _, n := range p.Numbers {
		add(strconv.Itoa(n))
	}

	// Sorted so the identifier order, and therefore the match, does not
	// depend on map iteration.
	keys := make([]string, 0, len(v.ExternalIDs))
	for k := range v.ExternalIDs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(ident.Key(v.ExternalIDs[k]))
	}

	p.TruckKeys = append(p.TruckKeys, p.Identifiers...)
	for _, raw := range append([]string{v.Name}, externalValues(v.ExternalIDs, keys)...) {
		if key := ident.CleanIdentifier(raw); key != "" && !contains(p.TruckKeys, key) {
			p.TruckKeys = append(p.TruckKeys, key)
		}
	}

	return p
}

func externalValues(ids map[string]string, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = ids[k]
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// HasIdentifier reports whether key is one of the vehicle's identifiers.
func (p *VehicleProfile) HasIdentifier(key string) bool {
	if key == "" {
		return false
	}
	for _, id := range p.Identifiers {
		if id == key {
			return true
		}
	}
	return false
}

// HasNumber reports whether n was extracted from the vehicle name.
func (p *VehicleProfile) HasNumber(n int) bool {
	for _, m := range p.Numbers {
		if m == n {
			return true
		}
	}
	return false
}

// JobProfile is a job with its comparison keys precomputed.
type JobProfile struct {
	Job         *domain.Job
	TruckNumber int
	HasTruck    bool
	TruckKey    string
	// TruckName is the truck field run through CleanIdentifier.
	TruckName   string
	RouteKey    string
	DriverKey   string
	Keywords    []string
}

// NewJobProfile precomputes keys for j.
func NewJobProfile(j *domain.Job) *JobProfile {
	p := &JobProfile{
		Job:       j,
		TruckKey:  ident.Key(j.TruckID),
		TruckName: ident.CleanIdentifier(j.TruckID),
		RouteKey:  ident.Key(j.RouteID),
		DriverKey: ident.Key(j.DriverID),
		Keywords:  ident.Keywords(j.Type),
	}
	p.TruckNumber, p.HasTruck = ident.ParseNumber(j.TruckID)
	return p
}

// JobPool holds the jobs of one run and tracks which of them have been claimed.
type JobPool struct {
	jobs    []*JobProfile
	claimed map[int64]string
}

// NewJobPool builds a pool from jobs, skipping terminal ones. Claims are per
// job id, so only the first record of a repeated id enters the pool. The jobs
// slice is not modified.
func NewJobPool(jobs []domain.Job) *JobPool {
	pool := &JobPool{claimed: make(map[int64]string)}
	seen := make(map[int64]struct{}, len(jobs))
	for i := range jobs {
		if jobs[i].IsTerminal() {
			continue
		}
		if _, dup := seen[jobs[i].ID]; dup {
			continue
		}
		seen[jobs[i].ID] = struct{}{}
		pool.jobs = append(pool.jobs, NewJobProfile(&jobs[i]))
	}
	return pool
}

// Len returns the number of jobs in the pool, claimed or not.
func (p *JobPool) Len() int {
	return len(p.jobs)
}

// Available returns the unclaimed jobs in input order.
func (p *JobPool) Available() []*JobProfile {
	out := make([]*JobProfile, 0, len(p.jobs))
	for _, j := range p.jobs {
		if _, ok := p.claimed[j.Job.ID]; !ok {
			out = append(out, j)
		}
	}
	return out
}

// Filter returns the unclaimed jobs for which keep returns true.
func (p *JobPool) Filter(keep func(*JobProfile) bool) []*JobProfile {
	var out []*JobProfile
	for _, j := range p.Available() {
		if keep(j) {
			out = append(out, j)
		}
	}
	return out
}

// ClaimedBy returns the id of the vehicle holding job id, if any.
func (p *JobPool) ClaimedBy(id int64) (string, bool) {
	v, ok := p.claimed[id]
	return v, ok
}

// Claimed returns the number of claimed job ids.
func (p *JobPool) Claimed() int {
	return len(p.claimed)
}

func (p *JobPool) claim(id int64, vehicleID string) {
	p.claimed[id] = vehicleID
}

// driverNamesMatch compares two person names loosely: case-insensitive
// containment of one in the other, or equal last names.
func driverNamesMatch(a, b string) bool {
	a = ident.CleanIdentifier(a)
	b = ident.CleanIdentifier(b)
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	fa := strings.Fields(a)
	fb := strings.Fields(b)
	if len(fa) < 2 && len(fb) < 2 {
		return false
	}
	last := func(f []string) string { return f[len(f)-1] }
	la, lb := last(fa), last(fb)
	return len(la) >= 2 && la == lb
}
