package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trevden810/dispatchtracker/internal/domain"
)

// GeocodeRepository persists resolved addresses.
type GeocodeRepository struct {
	db *gorm.DB
}

// NewGeocodeRepository creates a new GeocodeRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *GeocodeRepository: repository instance bound to db.
func NewGeocodeRepository(db *gorm.DB) *GeocodeRepository {
	return &GeocodeRepository{db: db}
}

// GetByKey retrieves an entry by its normalized address key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: normalized address key.
// Returns:
//   - *domain.GeocodeEntry: entry if found.
//   - error: gorm.ErrRecordNotFound when absent.
func (r *GeocodeRepository) GetByKey(ctx context.Context, key string) (*domain.GeocodeEntry, error) {
	var entry domain.GeocodeEntry
	if err := r.db.WithContext(ctx).First(&entry, "address_key = ?", key).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert creates or replaces the entry for its address key.
func (r *GeocodeRepository) Upsert(ctx context.Context, entry *domain.GeocodeEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"address", "lat", "lng", "confidence", "display_name", "updated_at"}),
	}).Create(entry).Error
}

// Count returns the number of stored entries.
func (r *GeocodeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.GeocodeEntry{}).Count(&count).Error
	return count, err
}

// DeleteAll removes every entry and returns how many were removed.
func (r *GeocodeRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.GeocodeEntry{})
	return res.RowsAffected, res.Error
}
