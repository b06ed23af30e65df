package service

import (
	"errors"
	"testing"

	"github.com/gearswap/marketplace/internal/domain"
)

func TestListingService_CreateAutoMatches(t *testing.T) {
	ts := newTestServices(t)
	ts.register(t, "seller", 80)
	ts.register(t, "buyer", 80)

	wts := ts.createListing(t, "seller", domain.SideSell, 180.00, 2)
	wtb := ts.createListing(t, "buyer", domain.SideBuy, 185.00, 2)

	if wtb.Price != 18500 {
		t.Errorf("expected price stored in cents, got %d", wtb.Price)
	}

	m := ts.pendingMatchFor(t, wtb.ListingID)
	if m.Status != domain.MatchStatusPending {
		t.Errorf("expected pending match, got %s", m.Status)
	}
	if m.WTSListingID != wts.ListingID {
		t.Errorf("expected match against the sell listing")
	}
	// Trade executes at the seller's asking price.
	if m.Price != 18000 {
		t.Errorf("expected match at ask 18000, got %d", m.Price)
	}
	if wtb.Reserved != 2 || wts.Reserved != 2 {
		t.Errorf("expected both sides reserved, got wtb=%d wts=%d", wtb.Reserved, wts.Reserved)
	}
}

func TestListingService_CreateValidation(t *testing.T) {
	ts := newTestServices(t)
	ts.register(t, "alice", 50)

	base := CreateListingRequest{
		OwnerID:   "alice",
		Side:      domain.SideBuy,
		ProductID: "dunk-low-panda",
		Size:      "10.5",
		Price:     120.00,
		Quantity:  1,
	}

	tests := []struct {
		name   string
		mutate func(*CreateListingRequest)
	}{
		{"bad side", func(r *CreateListingRequest) { r.Side = "borrow" }},
		{"bad owner id", func(r *CreateListingRequest) { r.OwnerID = "no spaces" }},
		{"bad product id", func(r *CreateListingRequest) { r.ProductID = "has/slash" }},
		{"bad size", func(r *CreateListingRequest) { r.Size = "EU 42" }},
		{"zero quantity", func(r *CreateListingRequest) { r.Quantity = 0 }},
		{"negative quantity", func(r *CreateListingRequest) { r.Quantity = -3 }},
		{"zero price", func(r *CreateListingRequest) { r.Price = 0 }},
		{"sub-cent price", func(r *CreateListingRequest) { r.Price = 99.999 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := ts.listings.Create(req)
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestListingService_CreateUnknownOwner(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.listings.Create(CreateListingRequest{
		OwnerID:   "ghost",
		Side:      domain.SideBuy,
		ProductID: "dunk-low-panda",
		Size:      "10.5",
		Price:     120.00,
		Quantity:  1,
	})
	if !errors.Is(err, domain.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestListingService_CreateNoAutoMatchWhenOff(t *testing.T) {
	ts := newTestServices(t)
	ts.register(t, "seller", 80)
	ts.register(t, "buyer", 80)
	ts.settings.SetAutoMatching(false)

	ts.createListing(t, "seller", domain.SideSell, 180.00, 2)
	wtb := ts.createListing(t, "buyer", domain.SideBuy, 185.00, 2)

	if n := len(ts.matchStore.NonTerminalByListing(wtb.ListingID)); n != 0 {
		t.Errorf("expected no matches with auto-matching off, got %d", n)
	}
}

func TestListingService_CancelCascadesToMatch(t *testing.T) {
	ts := newTestServices(t)
	ts.register(t, "seller", 80)
	ts.register(t, "buyer", 80)
	ts.register(t, "buyer2", 80)

	wts := ts.createListing(t, "seller", domain.SideSell, 180.00, 2)
	wtb := ts.createListing(t, "buyer", domain.SideBuy, 185.00, 2)
	m := ts.pendingMatchFor(t, wtb.ListingID)

	got, err := ts.listings.Cancel(wtb.ListingID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.ListingStatusCancelled {
		t.Errorf("expected cancelled listing, got %s", got.Status)
	}
	if m.Status != domain.MatchStatusCancelled || m.CancelReason != "listing_cancelled" {
		t.Errorf("expected cascaded cancel, got %s/%s", m.Status, m.CancelReason)
	}
	if wts.Reserved != 0 {
		t.Errorf("expected seller reservation released, got %d", wts.Reserved)
	}

	// The freed sell quantity is available to a new buyer.
	wtb2 := ts.createListing(t, "buyer2", domain.SideBuy, 185.00, 2)
	m2 := ts.pendingMatchFor(t, wtb2.ListingID)
	if m2.WTSListingID != wts.ListingID {
		t.Errorf("expected the released sell listing to rematch")
	}
}

func TestListingService_CancelNonActive(t *testing.T) {
	ts := newTestServices(t)
	ts.register(t, "alice", 50)

	l := ts.createListing(t, "alice", domain.SideSell, 180.00, 1)
	if _, err := ts.listings.Cancel(l.ListingID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ts.listings.Cancel(l.ListingID); !errors.Is(err, domain.ErrListingNotCancellable) {
		t.Errorf("expected ErrListingNotCancellable, got %v", err)
	}
	if _, err := ts.listings.Cancel("nope"); !errors.Is(err, domain.ErrListingNotFound) {
		t.Errorf("expected ErrListingNotFound, got %v", err)
	}
}

func TestListingService_ListByOwner(t *testing.T) {
	ts := newTestServices(t)
	ts.register(t, "alice", 50)

	ts.createListing(t, "alice", domain.SideSell, 180.00, 1)
	ts.createListing(t, "alice", domain.SideBuy, 120.00, 1)

	listings, total, err := ts.listings.ListByOwner("alice", nil, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(listings) != 2 {
		t.Errorf("expected 2 listings, got total=%d page_len=%d", total, len(listings))
	}

	if _, _, err := ts.listings.ListByOwner("ghost", nil, 1, 10); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
}
