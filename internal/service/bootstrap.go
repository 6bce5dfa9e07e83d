package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/trevden810/dispatchtracker/internal/config"
	"github.com/trevden810/dispatchtracker/internal/correlation"
	"github.com/trevden810/dispatchtracker/internal/geocode"
	"github.com/trevden810/dispatchtracker/internal/hygiene"
	"github.com/trevden810/dispatchtracker/internal/logger"
	"github.com/trevden810/dispatchtracker/internal/repository"
	"github.com/trevden810/dispatchtracker/internal/source/filemaker"
	"github.com/trevden810/dispatchtracker/internal/source/telematics"
	"github.com/trevden810/dispatchtracker/internal/storage"
)

// App bundles the dispatch service with the resources it owns.
type App struct {
	Dispatch *DispatchService
	DB       *gorm.DB
}

// Close releases the database connection.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewApp wires the dispatch service from configuration.
// Parameters:
//   - ctx: context for startup calls such as the storage bucket check.
//   - cfg: validated application configuration.
// Returns:
//   - *App: service plus owned resources; call Close on shutdown.
//   - error: non-nil if the database or storage cannot be initialized.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.GetDefault().WithField(logger.FieldComponent, "bootstrap")
	app := &App{}

	deps := DispatchDeps{
		Vehicles: telematics.NewClient(&telematics.Config{
			BaseURL:   cfg.Telematics.BaseURL,
			APIToken:  cfg.Telematics.APIToken,
			Timeout:   cfg.Telematics.Timeout,
			PageLimit: cfg.Telematics.PageLimit,
		}),
		Jobs: filemaker.NewClient(&filemaker.Config{
			Host:       cfg.FileMaker.Host,
			Database:   cfg.FileMaker.Database,
			Layout:     cfg.FileMaker.Layout,
			Username:   cfg.FileMaker.Username,
			Password:   cfg.FileMaker.Password,
			Timeout:    cfg.FileMaker.Timeout,
			PageSize:   cfg.FileMaker.PageSize,
			MaxJobs:    cfg.FileMaker.MaxJobs,
			ActiveOnly: cfg.FileMaker.ActiveOnly,
		}),
	}

	needDB := cfg.Correlation.RecordRuns || (cfg.Geocoding.Enabled && cfg.Geocoding.Persist)
	if needDB {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		app.DB = db
	}

	if cfg.Geocoding.Enabled {
		var store geocode.Store
		if cfg.Geocoding.Persist {
			store = repository.NewGeocodeRepository(app.DB)
		}
		cached := geocode.NewCachedGeocoder(
			geocode.NewNominatimClient(&geocode.NominatimConfig{
				BaseURL:     cfg.Geocoding.BaseURL,
				APIKey:      cfg.Geocoding.APIKey,
				UserAgent:   cfg.Geocoding.UserAgent,
				CountryCode: cfg.Geocoding.CountryCode,
				Timeout:     cfg.Geocoding.Timeout,
			}),
			geocode.NewCache(cfg.Geocoding.CacheSize, cfg.Geocoding.CacheTTL),
			store,
		)
		deps.Geocoder = cached
		deps.CacheReset = cached
		log.WithField("persist", cfg.Geocoding.Persist).Info("Geocoding enabled")
	}

	if cfg.Correlation.RecordRuns {
		deps.Runs = repository.NewRunRepository(app.DB)
	}

	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(ctx, &cfg.Storage)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		deps.Archive = storage.NewArchive(store, cfg.Storage.Prefix)
		log.WithField("bucket", cfg.Storage.Bucket).Info("Run snapshot archive enabled")
	}

	app.Dispatch = NewDispatchService(deps, DispatchConfigFrom(cfg))
	return app, nil
}

// DispatchConfigFrom maps the configuration sections onto service settings.
func DispatchConfigFrom(cfg *config.Config) DispatchConfig {
	batch := geocode.DefaultBatchOptions()
	if cfg.Geocoding.BatchWidth > 0 {
		batch.Width = cfg.Geocoding.BatchWidth
	}
	if cfg.Geocoding.BatchDelay >= 0 {
		batch.Delay = cfg.Geocoding.BatchDelay
	}

	c := cfg.Correlation
	h := cfg.Hygiene
	return DispatchConfig{
		Correlation: correlation.Config{
			AtLocationMiles:        c.AtLocationMiles,
			VeryCloseMiles:         c.VeryCloseMiles,
			NearbyMiles:            c.NearbyMiles,
			MaxDistanceMiles:       c.MaxDistanceMiles,
			ParkedRadiusMiles:      c.ParkedRadiusMiles,
			ApproachMiles:          c.ApproachMiles,
			ApproachHeadingDegrees: c.ApproachHeadingDegrees,
			MaxCandidates:          c.MaxCandidates,
			Now:                    time.Now,
		},
		Hygiene: hygiene.Thresholds{
			ArrivalWarningHours:    h.ArrivalWarningHours,
			ArrivalCriticalHours:   h.ArrivalCriticalHours,
			StatusLagCriticalHours: h.StatusLagCriticalHours,
			OverdueWarningHours:    h.OverdueWarningHours,
			OverdueCriticalHours:   h.OverdueCriticalHours,
			IdleWarningHours:       h.IdleWarningHours,
			IdleActionHours:        h.IdleActionHours,
			IdleCriticalHours:      h.IdleCriticalHours,
		},
		Batch: batch,
	}
}
