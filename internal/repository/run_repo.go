package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/trevden810/dispatchtracker/internal/domain"
)

// RunRepository stores correlation run summaries.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - run: run summary to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *RunRepository) Create(ctx context.Context, run *domain.CorrelationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.CorrelationRun, error) {
	var run domain.CorrelationRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecent returns up to limit runs, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of runs; values <= 0 default to 20.
// Returns:
//   - []domain.CorrelationRun: runs ordered by creation time descending.
//   - error: non-nil if the query fails.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]domain.CorrelationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []domain.CorrelationRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
