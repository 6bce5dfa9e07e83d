package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/trevden810/dispatchtracker/internal/config"
	"github.com/trevden810/dispatchtracker/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestGeocodeRepository(t *testing.T) {
	repo := NewGeocodeRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByKey(ctx, "1 main st")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Upsert(ctx, &domain.GeocodeEntry{AddressKey: "1 main st", Address: "1 Main St", Lat: 40, Lng: -105}))
	require.NoError(t, repo.Upsert(ctx, &domain.GeocodeEntry{AddressKey: "1 main st", Address: "1 MAIN ST", Lat: 41, Lng: -106, Confidence: 0.7}))
	require.NoError(t, repo.Upsert(ctx, &domain.GeocodeEntry{AddressKey: "2 elm st", Lat: 39, Lng: -104}))

	got, err := repo.GetByKey(ctx, "1 main st")
	require.NoError(t, err)
	assert.Equal(t, 41.0, got.Lat)
	assert.Equal(t, "1 MAIN ST", got.Address)
	assert.Equal(t, 0.7, got.Confidence)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunRepository(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &domain.CorrelationRun{
			ID:              fmt.Sprintf("run-%d", i),
			Status:          domain.RunStatusCompleted,
			TotalVehicles:   10 + i,
			MatchedVehicles: i,
			ByConfidence:    domain.CountMap{"high": i},
			ByMethod:        domain.CountMap{"exact_number": i},
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, domain.CountMap{"high": 2}, runs[0].ByConfidence)

	got, err := repo.GetByID(ctx, "run-0")
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalVehicles)
	assert.Equal(t, domain.CountMap{"exact_number": 0}, got.ByMethod)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
