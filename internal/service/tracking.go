package service

import (
	"context"
	"time"

	"github.com/trevden810/dispatchtracker/internal/correlation"
	"github.com/trevden810/dispatchtracker/internal/domain"
)

// AssignedJob is the dashboard view of a vehicle's primary job.
type AssignedJob struct {
	ID       int64      `json:"id"`
	Status   string     `json:"status"`
	Type     string     `json:"type,omitempty"`
	Customer string     `json:"customer,omitempty"`
	Address  string     `json:"address,omitempty"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}

// VehicleStatus is the per-vehicle dashboard row.
type VehicleStatus struct {
	VehicleID       string             `json:"vehicleId"`
	VehicleName     string             `json:"vehicleName"`
	Location        *domain.Location   `json:"location,omitempty"`
	EngineState     domain.EngineState `json:"engineState"`
	Speed           float64            `json:"speed"`
	AssignedJob     *AssignedJob       `json:"assignedJob"`
	OtherJobIDs     []int64            `json:"otherJobIds,omitempty"`
	Confidence      domain.Confidence  `json:"confidence"`
	MatchMethod     domain.MatchMethod `json:"matchMethod"`
	MatchDetails    string             `json:"matchDetails"`
	Distance        *float64           `json:"distance,omitempty"`
	MatchingFactors []string           `json:"matchingFactors,omitempty"`
	Candidates      []domain.Candidate `json:"candidates,omitempty"`
}

// TrackingView is the dashboard payload.
type TrackingView struct {
	RunID       string              `json:"runId"`
	Status      domain.RunStatus    `json:"status"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Warnings    []string            `json:"warnings,omitempty"`
	Vehicles    []VehicleStatus     `json:"vehicles"`
	Summary     correlation.Summary `json:"summary"`
}

// Tracking runs a correlation pass and shapes it for the dashboard.
func (s *DispatchService) Tracking(ctx context.Context) (*TrackingView, error) {
	report, err := s.Correlate(ctx, CorrelateOptions{})
	if err != nil {
		return nil, err
	}
	return NewTrackingView(report), nil
}

// NewTrackingView converts a correlation report into dashboard rows, one per
// vehicle in fetch order. Matches line up with report.Vehicles by index.
func NewTrackingView(report *CorrelationReport) *TrackingView {
	view := &TrackingView{
		RunID:       report.RunID,
		Status:      report.Status,
		GeneratedAt: report.GeneratedAt,
		Warnings:    report.Warnings,
		Vehicles:    make([]VehicleStatus, 0, len(report.Result.Matches)),
		Summary:     report.Result.Summary,
	}
	for i := range report.Result.Matches {
		var v *domain.Vehicle
		if i < len(report.Vehicles) {
			v = &report.Vehicles[i]
		}
		view.Vehicles = append(view.Vehicles, vehicleStatus(&report.Result.Matches[i], v))
	}
	return view
}

func vehicleStatus(m *domain.MatchResult, v *domain.Vehicle) VehicleStatus {
	row := VehicleStatus{
		VehicleID:       m.VehicleID,
		VehicleName:     m.VehicleName,
		Confidence:      m.Confidence,
		MatchMethod:     m.MatchMethod,
		MatchDetails:    m.MatchDetails,
		Distance:        m.Distance,
		MatchingFactors: m.MatchingFactors,
		Candidates:      m.Candidates,
		EngineState:     domain.EngineUnknown,
	}
	if v != nil {
		row.Location = v.Location
		row.EngineState = v.EngineState
		row.Speed = v.SpeedMPH
	}
	if job := m.PrimaryJob(); job != nil {
		row.AssignedJob = &AssignedJob{
			ID:       job.ID,
			Status:   job.Status,
			Type:     job.Type,
			Customer: job.Customer,
			Address:  job.Address,
			DueDate:  job.DueDate,
		}
		if ids := m.JobIDs(); len(ids) > 1 {
			row.OtherJobIDs = ids[1:]
		}
	}
	return row
}
