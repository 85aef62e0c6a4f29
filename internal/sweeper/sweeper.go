// Package sweeper converges persisted visit statuses onto what the status
// engine says they should be. It is the only writer responsible for
// finalizing no-shows and stale active visits; interactive reads that need
// instant accuracy re-derive status on the fly instead of waiting for it.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"campuspass/internal/visit"
)

// Store is the slice of the visit repository the sweeper needs.
type Store interface {
	OpenVisitIDs(ctx context.Context, onOrBefore time.Time) ([]string, error)
	ApplyCutoff(ctx context.Context, id string, now time.Time, cutoff visit.TimeOfDay) (*visit.Change, error)
}

type Sweeper struct {
	Visits Store
	Cutoff visit.TimeOfDay
	Log    *zap.Logger

	// Now is injectable for tests; defaults to wall clock in Location.
	Now      func() time.Time
	Location *time.Location
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().In(s.Location)
}

// Run sweeps on a fixed interval until the context is cancelled. A visit
// may sit stale for up to one interval past its true cutoff instant; that
// staleness is the accepted tradeoff, not a correctness bug.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.Log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep finalizes every open visit the engine says has passed its cutoff.
// Each visit is handled in its own locked transaction, so a sweep landing
// in the middle of a manual check-out loses the race cleanly for that row
// and touches nothing. Re-running over already-finalized visits is a no-op.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	sweepsTotal.Inc()

	ids, err := s.Visits.OpenVisitIDs(ctx, now)
	if err != nil {
		sweepErrors.Inc()
		return 0, err
	}

	finalized := 0
	for _, id := range ids {
		change, err := s.Visits.ApplyCutoff(ctx, id, now, s.Cutoff)
		if err != nil {
			sweepErrors.Inc()
			s.Log.Error("cutoff apply failed", zap.String("visit_id", id), zap.Error(err))
			continue
		}
		if change == nil {
			continue
		}

		finalized++
		finalizedTotal.WithLabelValues(string(change.Visit.Status)).Inc()
		s.Log.Info("visit finalized",
			zap.String("code", change.Visit.Code),
			zap.String("from", string(change.From)),
			zap.String("to", string(change.Visit.Status)),
		)
	}

	if finalized > 0 {
		s.Log.Info("sweep done", zap.Int("scanned", len(ids)), zap.Int("finalized", finalized))
	}
	return finalized, nil
}
