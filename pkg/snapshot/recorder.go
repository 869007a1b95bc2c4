package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/healthtree/pkg/lifecycle"
	"github.com/bft-labs/healthtree/pkg/log"
)

// Recorder saves a snapshot every time the watched component publishes a state.
// Save errors are logged and kept; they never reach the publisher.
type Recorder struct {
	repo   Repository
	runID  uuid.UUID
	logger log.Logger
	now    func() time.Time

	mu      sync.Mutex
	saves   int
	lastErr error
}

// NewRecorder creates a recorder with a fresh run ID.
func NewRecorder(repo Repository, logger log.Logger) *Recorder {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Recorder{repo: repo, runID: uuid.New(), logger: logger, now: time.Now}
}

// RunID returns the ID stamped on every snapshot this recorder saves.
func (r *Recorder) RunID() uuid.UUID {
	return r.runID
}

// Watch starts recording c. The current state is saved before Watch returns.
func (r *Recorder) Watch(c lifecycle.Component) lifecycle.Subscription {
	return c.Subscribe(func(s lifecycle.StateInfo) {
		r.record(s)
	})
}

// Saves returns how many snapshots were written successfully.
func (r *Recorder) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// Err returns the most recent save error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Recorder) record(s lifecycle.StateInfo) {
	snap := New(r.runID, s, r.now())

	// Serializes writes so the file always holds the latest publication.
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.repo.Save(context.Background(), snap); err != nil {
		r.lastErr = err
		r.logger.Warn("failed to save snapshot",
			log.String("component", s.Name),
			log.Err(err),
		)
		return
	}
	r.saves++
	r.lastErr = nil
}
