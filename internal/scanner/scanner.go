// Package scanner implements the recurring alert check over the schedule store.
package scanner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"schedule_manager/internal/model"
	"schedule_manager/internal/storage"
)

// Dispatcher receives each batch of newly due entries.
type Dispatcher interface {
	Dispatch(ctx context.Context, batch []model.Entry)
}

// Scanner periodically checks the store for entries whose alert time has
// passed and hands them to the dispatcher. Ids that already triggered a
// notification in this session are tracked in-process and suppressed; the
// set is intentionally not persisted, so a restart re-alerts entries that
// remain unconfirmed.
type Scanner struct {
	store      storage.Storage
	dispatcher Dispatcher
	log        *slog.Logger
	ownerID    int64
	tick       time.Duration

	mu      sync.Mutex
	alerted map[int64]struct{}
}

// New creates a Scanner for one owner's entries with the default 2-second
// check interval.
func New(store storage.Storage, dispatcher Dispatcher, log *slog.Logger, ownerID int64) *Scanner {
	return &Scanner{
		store:      store,
		dispatcher: dispatcher,
		log:        log,
		ownerID:    ownerID,
		tick:       2 * time.Second,
		alerted:    make(map[int64]struct{}),
	}
}

// SetTickInterval overrides the default check interval.
func (s *Scanner) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scan loop, blocking until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	s.scan(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

// scan performs one cycle: find newly due entries, mark them alerted, and
// dispatch the batch. A store error skips the whole cycle; nothing is
// marked and the next tick retries. An empty result has no effect.
func (s *Scanner) scan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	now := time.Now().UTC()
	due, err := s.store.FindDue(ctx, s.ownerID, now, s.alertedIDs())
	if err != nil {
		s.log.Error("find due entries", "owner_id", s.ownerID, "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	// Mark before dispatch: an overlapping cycle must never pick up the
	// same entries, even if delivery fails.
	s.mu.Lock()
	for _, e := range due {
		s.alerted[e.ID] = struct{}{}
	}
	s.mu.Unlock()

	s.log.Info("due entries found", "owner_id", s.ownerID, "count", len(due))
	s.dispatcher.Dispatch(ctx, due)
}

// Forget drops an id from the alerted set. Called when an entry is deleted
// so the set does not grow without bound; unknown ids are ignored.
func (s *Scanner) Forget(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.alerted, id)
}

// alertedIDs returns a snapshot of the alerted set for the store query.
func (s *Scanner) alertedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.alerted) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(s.alerted))
	for id := range s.alerted {
		ids = append(ids, id)
	}
	return ids
}
