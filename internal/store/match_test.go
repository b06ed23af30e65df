package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gearswap/marketplace/internal/domain"
)

func newMatch(id, wtb, wts string, status domain.MatchStatus, expiresAt time.Time) *domain.Match {
	return &domain.Match{
		MatchID:      id,
		WTBListingID: wtb,
		WTSListingID: wts,
		BuyerID:      "buyer",
		SellerID:     "seller",
		ProductID:    "yeezy-350",
		Size:         "9.5",
		Price:        20000,
		Quantity:     1,
		Status:       status,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}
}

func TestMatchStore_GetNotFound(t *testing.T) {
	s := NewMatchStore()
	if _, err := s.Get("nope"); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestMatchStore_ActivePair(t *testing.T) {
	s := NewMatchStore()
	m := newMatch("m1", "wtb1", "wts1", domain.MatchStatusPending, time.Now().Add(time.Hour))
	s.Create(m)

	if !s.ActivePairExists("wtb1", "wts1") {
		t.Error("expected active pair after create")
	}
	// Pair index is keyed on the ordered pair.
	if s.ActivePairExists("wts1", "wtb1") {
		t.Error("expected reversed pair to be distinct")
	}

	m.Status = domain.MatchStatusCancelled
	s.Resolve(m)
	if s.ActivePairExists("wtb1", "wts1") {
		t.Error("expected pair cleared after resolve")
	}

	// Resolve is idempotent and does not clobber a successor match for
	// the same pair.
	m2 := newMatch("m2", "wtb1", "wts1", domain.MatchStatusPending, time.Now().Add(time.Hour))
	s.Create(m2)
	s.Resolve(m)
	if !s.ActivePairExists("wtb1", "wts1") {
		t.Error("expected successor pair to survive stale resolve")
	}
}

func TestMatchStore_NonTerminalByListing(t *testing.T) {
	s := NewMatchStore()
	s.Create(newMatch("m1", "wtb1", "wts1", domain.MatchStatusPending, time.Now().Add(time.Hour)))
	s.Create(newMatch("m2", "wtb1", "wts2", domain.MatchStatusConfirmed, time.Now().Add(time.Hour)))
	s.Create(newMatch("m3", "wtb1", "wts3", domain.MatchStatusCompleted, time.Now().Add(time.Hour)))

	got := s.NonTerminalByListing("wtb1")
	if len(got) != 2 {
		t.Fatalf("expected 2 non-terminal matches, got %d", len(got))
	}
	if got[0].MatchID != "m1" || got[1].MatchID != "m2" {
		t.Errorf("expected oldest first, got %s, %s", got[0].MatchID, got[1].MatchID)
	}

	if n := len(s.NonTerminalByListing("wts3")); n != 0 {
		t.Errorf("expected no non-terminal matches for completed pair, got %d", n)
	}
}

func TestMatchStore_ListByMember(t *testing.T) {
	s := NewMatchStore()
	for i := 0; i < 5; i++ {
		st := domain.MatchStatusPending
		if i%2 == 0 {
			st = domain.MatchStatusCompleted
		}
		s.Create(newMatch(fmt.Sprintf("m%d", i), fmt.Sprintf("wtb%d", i), fmt.Sprintf("wts%d", i), st, time.Now().Add(time.Hour)))
	}

	// Both parties see the match, newest first.
	page, total := s.ListByMember("buyer", nil, 1, 3)
	if total != 5 || len(page) != 3 || page[0].MatchID != "m4" {
		t.Errorf("expected 5 total newest first, got total=%d first=%s", total, page[0].MatchID)
	}
	_, total = s.ListByMember("seller", nil, 1, 10)
	if total != 5 {
		t.Errorf("expected seller to see 5 matches, got %d", total)
	}

	pending := domain.MatchStatusPending
	page, total = s.ListByMember("buyer", &pending, 1, 10)
	if total != 2 || len(page) != 2 {
		t.Errorf("expected 2 pending, got total=%d page_len=%d", total, len(page))
	}

	page, total = s.ListByMember("nobody", nil, 1, 10)
	if total != 0 || len(page) != 0 {
		t.Errorf("expected empty result, got total=%d", total)
	}
}

func TestMatchStore_PendingBefore(t *testing.T) {
	s := NewMatchStore()
	now := time.Now()
	s.Create(newMatch("overdue", "wtb1", "wts1", domain.MatchStatusPending, now.Add(-time.Minute)))
	s.Create(newMatch("boundary", "wtb2", "wts2", domain.MatchStatusPending, now))
	s.Create(newMatch("fresh", "wtb3", "wts3", domain.MatchStatusPending, now.Add(time.Hour)))
	s.Create(newMatch("confirmed", "wtb4", "wts4", domain.MatchStatusConfirmed, now.Add(-time.Minute)))

	got := s.PendingBefore(now)
	ids := make(map[string]bool, len(got))
	for _, m := range got {
		ids[m.MatchID] = true
	}
	if len(got) != 2 || !ids["overdue"] || !ids["boundary"] {
		t.Errorf("expected overdue and boundary matches, got %v", ids)
	}
}
