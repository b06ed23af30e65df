package domain

import (
	"testing"
	"time"
)

func TestDollarsToCents(t *testing.T) {
	tests := []struct {
		name    string
		dollars float64
		cents   int64
		wantErr bool
	}{
		{"whole dollars", 180, 18000, false},
		{"with cents", 185.50, 18550, false},
		{"single cent", 0.01, 1, false},
		{"float noise", 19.99, 1999, false},
		{"three decimals", 99.999, 0, true},
		{"sub-cent", 0.001, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DollarsToCents(tt.dollars)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %v", tt.dollars)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.cents {
				t.Errorf("expected %d cents, got %d", tt.cents, got)
			}
		})
	}
}

func TestCentsToDollars(t *testing.T) {
	if got := CentsToDollars(18550); got != 185.50 {
		t.Errorf("expected 185.50, got %v", got)
	}
}

func TestSideOpposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell || SideSell.Opposite() != SideBuy {
		t.Error("unexpected opposite sides")
	}
}

func TestListingRemainingAndMatchable(t *testing.T) {
	l := &Listing{Quantity: 5, Reserved: 3, Status: ListingStatusActive}
	if l.Remaining() != 2 {
		t.Errorf("expected remaining 2, got %d", l.Remaining())
	}
	if !l.Matchable() {
		t.Error("expected matchable")
	}

	l.Reserved = 5
	if l.Matchable() {
		t.Error("expected fully reserved listing unmatchable")
	}

	l.Reserved = 0
	l.Status = ListingStatusCancelled
	if l.Matchable() {
		t.Error("expected cancelled listing unmatchable")
	}
}

func TestMatchStatusTerminal(t *testing.T) {
	terminal := map[MatchStatus]bool{
		MatchStatusPending:   false,
		MatchStatusConfirmed: false,
		MatchStatusCompleted: true,
		MatchStatusCancelled: true,
		MatchStatusExpired:   true,
	}
	for status, want := range terminal {
		if status.Terminal() != want {
			t.Errorf("%s: expected terminal=%v", status, want)
		}
	}
}

func TestMatchPartyHelpers(t *testing.T) {
	now := time.Now()
	m := &Match{BuyerID: "buyer", SellerID: "seller"}

	if !m.IsParty("buyer") || !m.IsParty("seller") || m.IsParty("other") {
		t.Error("unexpected party membership")
	}

	if m.ConfirmedBy("buyer") {
		t.Error("expected no confirmation yet")
	}
	m.BuyerConfirmedAt = &now
	if !m.ConfirmedBy("buyer") || m.ConfirmedBy("seller") {
		t.Error("unexpected confirmation state")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Message: "quantity must be a positive integer"}
	if err.Error() != "quantity must be a positive integer" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
