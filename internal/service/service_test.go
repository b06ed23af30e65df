package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/engine"
	"github.com/gearswap/marketplace/internal/store"
)

// testServices wires the full service stack over fresh in-memory
// stores, with webhook delivery replaced by a no-op notifier.
type testServices struct {
	members    *MemberService
	listings   *ListingService
	matches    *MatchService
	settings   *engine.Settings
	dispatcher *engine.Dispatcher

	listingStore *store.ListingStore
	matchStore   *store.MatchStore
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	listingStore := store.NewListingStore()
	matchStore := store.NewMatchStore()
	memberStore := store.NewMemberStore()

	settings := engine.NewSettings(true, true, time.Second)
	index := engine.NewCandidateIndex()
	dispatcher := engine.NewDispatcher(64, logger)
	t.Cleanup(dispatcher.Stop)

	reconciler := engine.NewReconciler(
		index, listingStore, matchStore, memberStore,
		settings, engine.NopNotifier{}, logger,
		engine.DefaultScoreWeights, 7*24*time.Hour, time.Hour,
	)
	lifecycle := engine.NewLifecycle(index, listingStore, matchStore, engine.NopNotifier{}, logger)

	return &testServices{
		members:      NewMemberService(memberStore),
		listings:     NewListingService(listingStore, memberStore, index, reconciler, lifecycle, dispatcher, settings),
		matches:      NewMatchService(matchStore, memberStore, lifecycle, dispatcher),
		settings:     settings,
		dispatcher:   dispatcher,
		listingStore: listingStore,
		matchStore:   matchStore,
	}
}

func (ts *testServices) register(t *testing.T, id string, cred int64) {
	t.Helper()
	if _, err := ts.members.Register(RegisterMemberRequest{MemberID: id, CredScore: cred}); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
}

func (ts *testServices) createListing(t *testing.T, owner string, side domain.Side, price float64, qty int64) *domain.Listing {
	t.Helper()
	l, err := ts.listings.Create(CreateListingRequest{
		OwnerID:   owner,
		Side:      side,
		ProductID: "dunk-low-panda",
		Size:      "10.5",
		Price:     price,
		Quantity:  qty,
	})
	if err != nil {
		t.Fatalf("create listing for %s: %v", owner, err)
	}
	return l
}

// pendingMatchFor returns the single non-terminal match referencing the
// listing, failing the test when there is not exactly one.
func (ts *testServices) pendingMatchFor(t *testing.T, listingID string) *domain.Match {
	t.Helper()
	matches := ts.matchStore.NonTerminalByListing(listingID)
	if len(matches) != 1 {
		t.Fatalf("expected 1 non-terminal match for %s, got %d", listingID, len(matches))
	}
	return matches[0]
}
