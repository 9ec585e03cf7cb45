// Package remote mirrors collection files to a shared backend so that
// several jobtrail instances can work on the same records.
package remote

import (
	"context"

	"github.com/starford/jobtrail/internal/models"
)

// Snapshot is one collection file as held by a backend.
type Snapshot struct {
	Collection models.Collection
	Path       string // file name the snapshot was pushed from
	Data       []byte
	Checksum   string
}

// Backend stores collection snapshots.
type Backend interface {
	// Checksum returns the stored checksum of c, or "" when c is absent.
	Checksum(ctx context.Context, c models.Collection) (string, error)
	// Pull returns the stored snapshot of c, or nil when c is absent.
	Pull(ctx context.Context, c models.Collection) (*Snapshot, error)
	// Push replaces the stored snapshot.
	Push(ctx context.Context, snap Snapshot) error
	Close() error
}
