package source

import (
	"context"

	"github.com/trevden810/dispatchtracker/internal/domain"
)

// VehicleSource supplies the current fleet snapshot.
type VehicleSource interface {
	// Name returns a stable identifier used in logs and metrics.
	Name() string

	// ListVehicles fetches every vehicle with its latest position and engine state.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	// Returns:
	//   - []domain.Vehicle: vehicles in upstream order.
	//   - error: non-nil if the upstream cannot be read.
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
}

// JobSource supplies dispatch jobs.
type JobSource interface {
	// Name returns a stable identifier used in logs and metrics.
	Name() string

	// ListJobs fetches the jobs visible to the dispatch board.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	// Returns:
	//   - []domain.Job: jobs in upstream order; empty when none match.
	//   - error: non-nil if the upstream cannot be read.
	ListJobs(ctx context.Context) ([]domain.Job, error)
}
