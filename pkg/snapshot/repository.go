package snapshot

import "context"

// Repository persists the latest snapshot.
type Repository interface {
	// Load returns the last saved snapshot, or an empty one if none exists.
	Load(ctx context.Context) (Snapshot, error)

	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, s Snapshot) error
}
