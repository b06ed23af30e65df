package engine

import (
	"log/slog"
	"time"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/store"
)

// Lifecycle owns the match state machine:
//
//	pending → confirmed → completed
//	pending | confirmed → cancelled
//	pending → expired
//
// Confirmation is two-phase: the first party's confirm moves the match
// to confirmed, the other party's confirm completes it. Terminal
// matches are immutable and are kept for audit.
//
// All methods must run on the match's bucket worker so they never race
// with a reconciliation pass for the same bucket.
type Lifecycle struct {
	index    *CandidateIndex
	listings *store.ListingStore
	matches  *store.MatchStore
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewLifecycle creates a Lifecycle with the given dependencies.
func NewLifecycle(
	index *CandidateIndex,
	listings *store.ListingStore,
	matches *store.MatchStore,
	notifier Notifier,
	logger *slog.Logger,
) *Lifecycle {
	return &Lifecycle{
		index:    index,
		listings: listings,
		matches:  matches,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Confirm records a party's confirmation of a match. The first
// confirmation transitions pending → confirmed; the second, from the
// other party, transitions confirmed → completed and commits the
// reserved quantity on both listings. It returns
// domain.ErrInvalidTransition when the actor is not a party, has
// already confirmed, or the match is terminal.
func (lc *Lifecycle) Confirm(matchID, actorID string) (*domain.Match, error) {
	m, err := lc.matches.Get(matchID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() || !m.IsParty(actorID) || m.ConfirmedBy(actorID) {
		return nil, domain.ErrInvalidTransition
	}

	now := lc.now()
	if actorID == m.BuyerID {
		m.BuyerConfirmedAt = &now
	} else {
		m.SellerConfirmedAt = &now
	}

	previous := m.Status
	if m.BuyerConfirmedAt != nil && m.SellerConfirmedAt != nil {
		lc.complete(m, now)
	} else {
		m.Status = domain.MatchStatusConfirmed
	}

	lc.logger.Info("match confirmed",
		slog.String("match_id", m.MatchID),
		slog.String("actor_id", actorID),
		slog.String("status", string(m.Status)),
	)
	lc.notifier.MatchStatusChanged(m, previous)
	return m, nil
}

// complete finalizes a fully confirmed match: the reserved units are
// committed on both listings and a listing whose quantity hits zero
// leaves the candidate index as matched.
func (lc *Lifecycle) complete(m *domain.Match, now time.Time) {
	m.Status = domain.MatchStatusCompleted
	m.ResolvedAt = &now

	lc.listings.Commit(m.WTBListingID, m.Quantity)
	lc.listings.Commit(m.WTSListingID, m.Quantity)
	lc.reindex(m.WTBListingID)
	lc.reindex(m.WTSListingID)
	lc.matches.Resolve(m)
}

// Cancel cancels a pending or confirmed match on behalf of a party and
// releases the reserved quantity back to both listings. Listings that
// are still active re-enter the candidate index. It returns
// domain.ErrInvalidTransition when the actor is not a party or the
// match is already terminal.
func (lc *Lifecycle) Cancel(matchID, actorID, reason string) (*domain.Match, error) {
	m, err := lc.matches.Get(matchID)
	if err != nil {
		return nil, err
	}
	if m.Status.Terminal() || !m.IsParty(actorID) {
		return nil, domain.ErrInvalidTransition
	}

	previous := m.Status
	lc.release(m, domain.MatchStatusCancelled, reason)

	lc.logger.Info("match cancelled",
		slog.String("match_id", m.MatchID),
		slog.String("actor_id", actorID),
		slog.String("reason", reason),
	)
	lc.notifier.MatchStatusChanged(m, previous)
	return m, nil
}

// CancelForListing cancels every non-terminal match referencing the
// listing, releasing reservations on both sides. Used when a listing
// is withdrawn mid-flight. Returns the matches it cancelled.
func (lc *Lifecycle) CancelForListing(listingID, reason string) []*domain.Match {
	cancelled := make([]*domain.Match, 0)
	for _, m := range lc.matches.NonTerminalByListing(listingID) {
		previous := m.Status
		lc.release(m, domain.MatchStatusCancelled, reason)
		lc.notifier.MatchStatusChanged(m, previous)
		cancelled = append(cancelled, m)
	}
	return cancelled
}

// Expire transitions an overdue pending match to expired, with the
// same release semantics as cancel. Idempotent: a match that is no
// longer pending is skipped and false is returned, so the periodic
// sweep can safely re-run.
func (lc *Lifecycle) Expire(matchID string) bool {
	m, err := lc.matches.Get(matchID)
	if err != nil {
		return false
	}
	if m.Status != domain.MatchStatusPending {
		return false
	}

	previous := m.Status
	lc.release(m, domain.MatchStatusExpired, "confirmation_timeout")

	lc.logger.Info("match expired", slog.String("match_id", m.MatchID))
	lc.notifier.MatchStatusChanged(m, previous)
	return true
}

// release moves a match to a terminal state and returns its reserved
// quantity to both listings, re-indexing whichever of them is still
// active.
func (lc *Lifecycle) release(m *domain.Match, status domain.MatchStatus, reason string) {
	now := lc.now()
	m.Status = status
	m.CancelReason = reason
	m.ResolvedAt = &now

	lc.listings.Release(m.WTBListingID, m.Quantity)
	lc.listings.Release(m.WTSListingID, m.Quantity)
	lc.reindex(m.WTBListingID)
	lc.reindex(m.WTSListingID)
	lc.matches.Resolve(m)
}

// reindex refreshes a listing's candidate-index entry from its current
// store state.
func (lc *Lifecycle) reindex(listingID string) {
	l, err := lc.listings.Get(listingID)
	if err != nil {
		return
	}
	lc.index.GetOrCreate(l.Bucket()).Upsert(l)
}
