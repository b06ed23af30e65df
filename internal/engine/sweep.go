package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/store"
)

// Sweep is the periodic background pass over the engine. Each tick it
// expires overdue pending matches, and, when auto-matching is off, it
// runs the deferred batch reconciliation over every bucket. It is the
// sole writer of expire transitions; expiry itself is idempotent, so a
// tick that overlaps state changed elsewhere is harmless.
type Sweep struct {
	settings   *Settings
	listings   *store.ListingStore
	matches    *store.MatchStore
	lifecycle  *Lifecycle
	reconciler *Reconciler
	dispatcher *Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewSweep creates a Sweep with the given dependencies.
func NewSweep(
	settings *Settings,
	listings *store.ListingStore,
	matches *store.MatchStore,
	lifecycle *Lifecycle,
	reconciler *Reconciler,
	dispatcher *Dispatcher,
	logger *slog.Logger,
) *Sweep {
	return &Sweep{
		settings:   settings,
		listings:   listings,
		matches:    matches,
		lifecycle:  lifecycle,
		reconciler: reconciler,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Start launches the sweep goroutine. It re-reads the configured
// interval after every tick so runtime changes take effect without a
// restart. It stops when ctx is cancelled.
func (s *Sweep) Start(ctx context.Context) {
	go func() {
		timer := time.NewTimer(s.settings.Interval())
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				s.Tick(s.now())
				timer.Reset(s.settings.Interval())
			}
		}
	}()
}

// Tick runs one sweep pass at the given instant. Exported so tests
// and the manual batch trigger can drive it directly.
func (s *Sweep) Tick(now time.Time) {
	s.expireOverdue(now)

	if s.settings.MatchingEnabled() && !s.settings.AutoMatching() {
		s.BatchReconcile()
	}
}

// expireOverdue dispatches an expire task for every pending match past
// its confirmation deadline. The task runs on the match's bucket
// worker, so it cannot race with an in-flight reconciliation there.
func (s *Sweep) expireOverdue(now time.Time) {
	for _, m := range s.matches.PendingBefore(now) {
		matchID := m.MatchID
		key := domain.BucketKey{ProductID: m.ProductID, Size: m.Size}
		s.dispatcher.Submit(key, func() {
			if s.lifecycle.Expire(matchID) {
				s.logger.Debug("sweep expired match", slog.String("match_id", matchID))
			}
		})
	}
}

// BatchReconcile runs a reconciliation pass for every active buy-side
// listing in every bucket, oldest first. Reconciliation is idempotent
// for a bucket with no new events, so re-running over the whole
// catalogue only creates matches where something actually changed.
func (s *Sweep) BatchReconcile() {
	for _, key := range s.listings.Buckets() {
		key := key
		s.dispatcher.Submit(key, func() {
			for _, l := range s.listings.ActiveByBucket(key, domain.SideBuy) {
				s.reconciler.Reconcile(l.ListingID)
			}
		})
	}
}
