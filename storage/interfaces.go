package storage

import (
	"context"

	"github.com/poiesic/chatter/core"
)

// SnapshotRepository persists trained snapshots.
// The vocabulary, weight table and knowledge base are stored and loaded as a unit.
// Implementations must be thread-safe and support concurrent access.
type SnapshotRepository interface {
	// SaveSnapshot replaces any stored snapshot with s.
	// Metadata is written last, so an interrupted save leaves no loadable snapshot.
	SaveSnapshot(ctx context.Context, s *core.Snapshot) error

	// LoadSnapshot reads the stored snapshot and validates it.
	// Returns ErrNotFound if no snapshot has been stored.
	// Returns ErrCorruptSnapshot if stored records disagree with the metadata.
	LoadSnapshot(ctx context.Context) (*core.Snapshot, error)

	// LoadMeta reads only the snapshot metadata.
	// Returns ErrNotFound if no snapshot has been stored.
	LoadMeta(ctx context.Context) (*core.SnapshotMeta, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
