package geocode

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trevden810/dispatchtracker/internal/domain"
	"github.com/trevden810/dispatchtracker/internal/logger"
)

// BatchOptions bounds the load placed on the upstream service.
type BatchOptions struct {
	// Width is the number of addresses resolved concurrently.
	Width int
	// Delay is the pause between consecutive batches.
	Delay time.Duration
}

// DefaultBatchOptions returns a width of 5 with a 200ms pause.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{Width: 5, Delay: 200 * time.Millisecond}
}

// BatchStats reports the outcome of a ResolveJobs call.
type BatchStats struct {
	Addresses int `json:"addresses"`
	Resolved  int `json:"resolved"`
	NotFound  int `json:"notFound"`
	Failed    int `json:"failed"`
	// Jobs is the number of jobs that received coordinates.
	Jobs int `json:"jobs"`
}

// ResolveJobs sets Coordinates on every job whose address resolves. Jobs that
// already have valid coordinates, terminal jobs, and jobs without an address
// are left alone. Each distinct address is looked up once. A failed lookup
// is logged and does not cancel the rest of its batch; only ctx cancellation
// stops the run early.
func ResolveJobs(ctx context.Context, g Geocoder, jobs []domain.Job, opts BatchOptions) BatchStats {
	if opts.Width <= 0 {
		opts.Width = 1
	}

	byKey := make(map[string][]int)
	var addresses []string
	for i := range jobs {
		j := &jobs[i]
		if j.IsTerminal() || (j.Coordinates != nil && j.Coordinates.Valid()) {
			continue
		}
		key := AddressKey(j.Address)
		if key == "" {
			continue
		}
		if _, seen := byKey[key]; !seen {
			addresses = append(addresses, j.Address)
		}
		byKey[key] = append(byKey[key], i)
	}

	stats := BatchStats{Addresses: len(addresses)}
	results := make(map[string]*Result, len(addresses))
	var mu sync.Mutex
	log := logger.FromContext(ctx)

	for start := 0; start < len(addresses); start += opts.Width {
		if start > 0 && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return finish(jobs, byKey, results, stats)
			case <-time.After(opts.Delay):
			}
		}
		if ctx.Err() != nil {
			break
		}

		end := start + opts.Width
		if end > len(addresses) {
			end = len(addresses)
		}

		var eg errgroup.Group
		for _, address := range addresses[start:end] {
			address := address
			eg.Go(func() error {
				r, err := g.Geocode(ctx, address)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					results[AddressKey(address)] = r
					stats.Resolved++
				case errors.Is(err, ErrNotFound):
					stats.NotFound++
					log.WithField("address", address).Info("Address not found by geocoder")
				default:
					stats.Failed++
					log.WithError(err).WithField("address", address).Warn("Failed to geocode address")
				}
				return nil
			})
		}
		_ = eg.Wait()
	}

	return finish(jobs, byKey, results, stats)
}

func finish(jobs []domain.Job, byKey map[string][]int, results map[string]*Result, stats BatchStats) BatchStats {
	for key, r := range results {
		for _, i := range byKey[key] {
			p := r.Point
			jobs[i].Coordinates = &p
			stats.Jobs++
		}
	}
	return stats
}
