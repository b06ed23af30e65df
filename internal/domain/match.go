package domain

import "time"

// MatchStatus represents the lifecycle state of a match.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCancelled MatchStatus = "cancelled"
	MatchStatusExpired   MatchStatus = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s MatchStatus) Terminal() bool {
	switch s {
	case MatchStatusCompleted, MatchStatusCancelled, MatchStatusExpired:
		return true
	}
	return false
}

// Match pairs a want-to-buy listing with a want-to-sell listing for a
// committed quantity. Matches are created by the reconciler, driven
// through their lifecycle by the lifecycle manager, and retained for
// audit once terminal.
type Match struct {
	MatchID           string
	WTBListingID      string
	WTSListingID      string
	BuyerID           string
	SellerID          string
	ProductID         string
	Size              string
	Price             int64   // cents, the seller's ask at creation time
	Score             float64 // in [0,1], fixed at creation time
	Quantity          int64
	Status            MatchStatus
	BuyerConfirmedAt  *time.Time
	SellerConfirmedAt *time.Time
	ExpiresAt         time.Time // confirmation deadline while pending
	CancelReason      string
	CreatedAt         time.Time
	ResolvedAt        *time.Time
}

// IsParty reports whether the member is the buyer or seller of the match.
func (m *Match) IsParty(memberID string) bool {
	return memberID == m.BuyerID || memberID == m.SellerID
}

// ConfirmedBy reports whether the given party has already confirmed.
func (m *Match) ConfirmedBy(memberID string) bool {
	switch memberID {
	case m.BuyerID:
		return m.BuyerConfirmedAt != nil
	case m.SellerID:
		return m.SellerConfirmedAt != nil
	}
	return false
}
