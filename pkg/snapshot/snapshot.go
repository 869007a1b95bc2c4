package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/healthtree/pkg/lifecycle"
)

// Snapshot is a persisted view of a component tree's aggregate health.
type Snapshot struct {
	// RunID identifies the process run that produced the snapshot.
	RunID uuid.UUID `json:"run_id"`

	// SavedAt is when the snapshot was taken.
	SavedAt time.Time `json:"saved_at"`

	// Ready is true when the root aggregate is OK or DEGRADED.
	Ready bool `json:"ready"`

	Root lifecycle.StateInfo `json:"root"`
}

// New takes a snapshot of root at the given time.
func New(runID uuid.UUID, root lifecycle.StateInfo, at time.Time) Snapshot {
	return Snapshot{RunID: runID, SavedAt: at, Ready: root.Ready(), Root: root}
}

// IsEmpty returns true if nothing has been saved yet.
func (s Snapshot) IsEmpty() bool {
	return s.RunID == uuid.Nil
}

// Age returns how long ago the snapshot was taken.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.SavedAt)
}
