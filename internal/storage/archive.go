package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ErrObjectNotFound is returned when a requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

const snapshotContentType = "application/json"

// Archive writes correlation run snapshots as JSON documents.
type Archive struct {
	store  ObjectStorage
	prefix string
}

// NewArchive creates an archive rooted at prefix inside store.
func NewArchive(store ObjectStorage, prefix string) *Archive {
	return &Archive{store: store, prefix: strings.Trim(prefix, "/")}
}

// SnapshotKey returns runs/YYYY/MM/DD/<run_id>.json under the archive prefix,
// dated in UTC.
func (a *Archive) SnapshotKey(runID string, at time.Time) string {
	key := path.Join("runs", at.UTC().Format("2006/01/02"), runID+".json")
	if a.prefix == "" {
		return key
	}
	return path.Join(a.prefix, key)
}

// Save uploads snapshot as JSON and returns its key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - runID: correlation run identifier.
//   - at: run time, used for the date partition.
//   - snapshot: value to encode.
// Returns:
//   - string: object key of the stored snapshot.
//   - error: non-nil if encoding or upload fails.
func (a *Archive) Save(ctx context.Context, runID string, at time.Time, snapshot any) (string, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	key := a.SnapshotKey(runID, at)
	if err := a.store.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), snapshotContentType); err != nil {
		return "", err
	}
	return key, nil
}

// Load downloads the snapshot at key and decodes it into out.
func (a *Archive) Load(ctx context.Context, key string, out any) error {
	rc, err := a.store.Download(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(out); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	return nil
}

// URL returns the link for a stored snapshot.
func (a *Archive) URL(key string) string {
	return a.store.GetURL(key)
}
