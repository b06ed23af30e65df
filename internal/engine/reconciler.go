package engine

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/store"
)

// Notifier receives match lifecycle events for downstream delivery.
// The engine never blocks on it: implementations must return quickly
// and do their own queueing or fire-and-forget dispatch.
type Notifier interface {
	MatchCreated(m *domain.Match)
	MatchStatusChanged(m *domain.Match, previous domain.MatchStatus)
}

// NopNotifier is a Notifier that does nothing. Used in tests and as a
// default when no delivery channel is configured.
type NopNotifier struct{}

func (NopNotifier) MatchCreated(*domain.Match)                           {}
func (NopNotifier) MatchStatusChanged(*domain.Match, domain.MatchStatus) {}

// Reconciler finds and commits the best counterpart(s) for a changed
// listing. Reconcile must only be called from the listing's bucket
// worker; the dispatcher's per-bucket serialization is what keeps two
// passes for the same bucket from interleaving.
type Reconciler struct {
	index    *CandidateIndex
	listings *store.ListingStore
	matches  *store.MatchStore
	members  *store.MemberStore
	settings *Settings
	notifier Notifier
	logger   *slog.Logger

	weights        ScoreWeights
	recencyHorizon time.Duration
	confirmTimeout time.Duration
	now            func() time.Time
}

// NewReconciler creates a Reconciler with the given dependencies. The
// weights must already be validated.
func NewReconciler(
	index *CandidateIndex,
	listings *store.ListingStore,
	matches *store.MatchStore,
	members *store.MemberStore,
	settings *Settings,
	notifier Notifier,
	logger *slog.Logger,
	weights ScoreWeights,
	recencyHorizon time.Duration,
	confirmTimeout time.Duration,
) *Reconciler {
	return &Reconciler{
		index:          index,
		listings:       listings,
		matches:        matches,
		members:        members,
		settings:       settings,
		notifier:       notifier,
		logger:         logger,
		weights:        weights,
		recencyHorizon: recencyHorizon,
		confirmTimeout: confirmTimeout,
		now:            time.Now,
	}
}

// scored pairs a candidate listing with its computed score for
// ranking.
type scored struct {
	listing *domain.Listing
	score   float64
}

// Reconcile runs one reconciliation pass for the given triggering
// listing: it ranks the opposite side of the listing's bucket by
// score, commits the best available counterparts one at a time, and
// keeps going until the triggering listing's remaining quantity is
// exhausted or no viable candidate is left. It returns the matches
// created, possibly none.
//
// A candidate lost to a concurrent change surfaces as a reservation
// conflict; the pass releases what it held and moves to the next
// candidate without reporting an error.
func (r *Reconciler) Reconcile(listingID string) []*domain.Match {
	if !r.settings.MatchingEnabled() {
		return nil
	}

	trigger, err := r.listings.Get(listingID)
	if err != nil {
		return nil
	}

	bucket := r.index.GetOrCreate(trigger.Bucket())
	created := make([]*domain.Match, 0)
	skipped := make(map[string]bool)

	for trigger.Matchable() {
		best, score, ok := r.bestCandidate(bucket, trigger, skipped)
		if !ok {
			break
		}

		m, err := r.commit(trigger, best, score)
		if err != nil {
			if errors.Is(err, domain.ErrReservationConflict) {
				// The candidate changed underneath us; refresh the
				// view and move on without retrying it this pass.
				bucket.Upsert(best)
				skipped[best.ListingID] = true
				continue
			}
			// The triggering listing itself was cancelled or
			// exhausted mid-pass. Local recovery: stop the pass.
			break
		}

		bucket.Upsert(trigger)
		bucket.Upsert(best)
		created = append(created, m)

		r.logger.Info("match created",
			slog.String("match_id", m.MatchID),
			slog.String("wtb_listing_id", m.WTBListingID),
			slog.String("wts_listing_id", m.WTSListingID),
			slog.Int64("quantity", m.Quantity),
			slog.Float64("score", m.Score),
		)
		r.notifier.MatchCreated(m)
	}

	return created
}

// bestCandidate scores every matchable candidate on the opposite side
// of the trigger and returns the winner. Ranking is score descending,
// then counterpart created_at ascending, then listing_id ascending, so
// the result is fully deterministic for a given index state.
func (r *Reconciler) bestCandidate(bucket *Bucket, trigger *domain.Listing, skipped map[string]bool) (*domain.Listing, float64, bool) {
	now := r.now()
	side := trigger.Side.Opposite()

	candidates := make([]scored, 0)
	for _, c := range bucket.Candidates(side) {
		if skipped[c.ListingID] || !c.Matchable() || c.OwnerID == trigger.OwnerID {
			continue
		}
		wtb, wts := orient(trigger, c)
		if !Crosses(wtb, wts) {
			continue
		}
		if r.matches.ActivePairExists(wtb.ListingID, wts.ListingID) {
			continue
		}
		ctx := ScoreContext{
			CounterpartSide: c.Side,
			CounterpartCred: r.members.CredScore(c.OwnerID),
			Now:             now,
			Horizon:         r.recencyHorizon,
			Weights:         r.weights,
		}
		candidates = append(candidates, scored{listing: c, score: Score(wtb, wts, ctx)})
	}
	if len(candidates) == 0 {
		return nil, 0, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		ci, cj := candidates[i].listing, candidates[j].listing
		if !ci.CreatedAt.Equal(cj.CreatedAt) {
			return ci.CreatedAt.Before(cj.CreatedAt)
		}
		return ci.ListingID < cj.ListingID
	})

	return candidates[0].listing, candidates[0].score, true
}

// commit atomically reserves quantity on both listings and records a
// pending match. If the candidate's reservation is lost to a
// concurrent change, the trigger's reservation is rolled back and the
// conflict is returned for the caller to retry with the next
// candidate.
func (r *Reconciler) commit(trigger, candidate *domain.Listing, score float64) (*domain.Match, error) {
	qty := trigger.Remaining()
	if candidate.Remaining() < qty {
		qty = candidate.Remaining()
	}

	if err := r.listings.Reserve(trigger.ListingID, qty); err != nil {
		return nil, err
	}
	if err := r.listings.Reserve(candidate.ListingID, qty); err != nil {
		r.listings.Release(trigger.ListingID, qty)
		return nil, err
	}

	wtb, wts := orient(trigger, candidate)
	now := r.now()
	m := &domain.Match{
		MatchID:      uuid.New().String(),
		WTBListingID: wtb.ListingID,
		WTSListingID: wts.ListingID,
		BuyerID:      wtb.OwnerID,
		SellerID:     wts.OwnerID,
		ProductID:    trigger.ProductID,
		Size:         trigger.Size,
		Price:        wts.Price,
		Score:        score,
		Quantity:     qty,
		Status:       domain.MatchStatusPending,
		ExpiresAt:    now.Add(r.confirmTimeout),
		CreatedAt:    now,
	}
	r.matches.Create(m)
	return m, nil
}

// orient returns the pair as (wtb, wts) regardless of which one
// triggered the pass.
func orient(a, b *domain.Listing) (wtb, wts *domain.Listing) {
	if a.Side == domain.SideBuy {
		return a, b
	}
	return b, a
}
