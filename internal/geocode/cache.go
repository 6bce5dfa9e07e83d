package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/geo"
	"github.com/trevden810/dispatchtracker/internal/logger"
	"github.com/trevden810/dispatchtracker/internal/metrics"
)

// Cache is a bounded, expiring in-memory address cache. It is safe for
// concurrent use; two goroutines resolving the same address simply overwrite
// each other with the same value.
type Cache struct {
	lru *expirable.LRU[string, Result]
}

// NewCache creates a cache holding at most size entries for ttl each.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1024
	}
	return &Cache{lru: expirable.NewLRU[string, Result](size, nil, ttl)}
}

// Get returns the cached result for key.
func (c *Cache) Get(key string) (Result, bool) {
	return c.lru.Get(key)
}

// Add stores r under key.
func (c *Cache) Add(key string, r Result) {
	c.lru.Add(key, r)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.lru.Purge()
}

// Store is the persistent cache tier.
type Store interface {
	GetByKey(ctx context.Context, key string) (*domain.GeocodeEntry, error)
	Upsert(ctx context.Context, entry *domain.GeocodeEntry) error
	DeleteAll(ctx context.Context) (int64, error)
}

// CachedGeocoder answers from memory, then the store, then the upstream
// geocoder, writing results back to the faster tiers. The store is optional.
type CachedGeocoder struct {
	upstream Geocoder
	cache    *Cache
	store    Store
}

// NewCachedGeocoder creates a tiered geocoder. store may be nil.
func NewCachedGeocoder(upstream Geocoder, cache *Cache, store Store) *CachedGeocoder {
	return &CachedGeocoder{upstream: upstream, cache: cache, store: store}
}

// Geocode implements Geocoder.
func (g *CachedGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	key := AddressKey(address)
	if key == "" {
		return nil, ErrNotFound
	}

	if r, ok := g.cache.Get(key); ok {
		metrics.GeocodeLookups.WithLabelValues("memory", "hit").Inc()
		return &r, nil
	}

	if g.store != nil {
		entry, err := g.store.GetByKey(ctx, key)
		switch {
		case err == nil:
			metrics.GeocodeLookups.WithLabelValues("database", "hit").Inc()
			r := Result{
				Point:       geo.Point{Lat: entry.Lat, Lng: entry.Lng},
				Confidence:  entry.Confidence,
				DisplayName: entry.DisplayName,
			}
			g.cache.Add(key, r)
			return &r, nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			metrics.GeocodeLookups.WithLabelValues("database", "miss").Inc()
		default:
			metrics.GeocodeLookups.WithLabelValues("database", "error").Inc()
			logger.FromContext(ctx).WithError(err).Warn("Geocode cache lookup failed")
		}
	}

	r, err := g.upstream.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.GeocodeLookups.WithLabelValues("upstream", "miss").Inc()
		} else {
			metrics.GeocodeLookups.WithLabelValues("upstream", "error").Inc()
		}
		return nil, err
	}
	metrics.GeocodeLookups.WithLabelValues("upstream", "hit").Inc()

	g.cache.Add(key, *r)
	if g.store != nil {
		entry := &domain.GeocodeEntry{
			AddressKey:  key,
			Address:     address,
			Lat:         r.Point.Lat,
			Lng:         r.Point.Lng,
			Confidence:  r.Confidence,
			DisplayName: r.DisplayName,
		}
		if err := g.store.Upsert(ctx, entry); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("Failed to persist geocode result")
		}
	}
	return r, nil
}

// Reset clears the memory tier and, when present, the persistent tier. It
// returns the number of persisted entries removed.
func (g *CachedGeocoder) Reset(ctx context.Context) (int64, error) {
	g.cache.Reset()
	if g.store == nil {
		return 0, nil
	}
	n, err := g.store.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear geocode store: %w", err)
	}
	return n, nil
}
