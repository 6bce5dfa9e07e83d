package domain

// Confidence is the qualitative trust level of a vehicle-job pairing.
// Values include ConfidenceHigh, ConfidenceMedium, ConfidenceLow, and ConfidenceNone.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Confidences lists every confidence level, strongest first.
var Confidences = []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceNone}

// MatchMethod names the strategy that produced a pairing.
type MatchMethod string

const (
	MethodExactNumber       MatchMethod = "exact_number"
	MethodFuzzyNumber       MatchMethod = "fuzzy_number"
	MethodTruck             MatchMethod = "truck"
	MethodRoute             MatchMethod = "route"
	MethodDriver            MatchMethod = "driver"
	MethodLocationProximity MatchMethod = "location_proximity"
	MethodNone              MatchMethod = "none"
)

// MatchMethods lists every method in cascade order.
var MatchMethods = []MatchMethod{
	MethodExactNumber,
	MethodFuzzyNumber,
	MethodTruck,
	MethodRoute,
	MethodDriver,
	MethodLocationProximity,
	MethodNone,
}

// Candidate is one ranked job considered by the proximity strategy.
type Candidate struct {
	JobID    int64    `json:"jobId"`
	Distance float64  `json:"distance"`
	Score    int      `json:"score"`
	Factors  []string `json:"factors"`
}

// MatchResult pairs one vehicle with zero or more jobs. AssignedJobs[0] is the
// primary assignment; further entries share the matched identifier or, for
// proximity matches, are lower-ranked candidates.
type MatchResult struct {
	VehicleID          string      `json:"vehicleId"`
	VehicleName        string      `json:"vehicleName"`
	Confidence         Confidence  `json:"confidence"`
	MatchMethod        MatchMethod `json:"matchMethod"`
	AssignedJobs       []Job       `json:"assignedJobs"`
	MatchDetails       string      `json:"matchDetails"`
	MatchedIdentifiers []string    `json:"matchedIdentifiers,omitempty"`
	Distance           *float64    `json:"distance,omitempty"`
	MatchingFactors    []string    `json:"matchingFactors,omitempty"`
	Candidates         []Candidate `json:"candidates,omitempty"`
}

// PrimaryJob returns the first assigned job, or nil when unmatched.
func (r *MatchResult) PrimaryJob() *Job {
	if len(r.AssignedJobs) == 0 {
		return nil
	}
	return &r.AssignedJobs[0]
}

// JobIDs returns the ids of the assigned jobs in order.
func (r *MatchResult) JobIDs() []int64 {
	ids := make([]int64, len(r.AssignedJobs))
	for i, j := range r.AssignedJobs {
		ids[i] = j.ID
	}
	return ids
}
