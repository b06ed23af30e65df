package domain

import "time"

// Side indicates whether a listing is demand (want-to-buy) or
// supply (want-to-sell).
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the counterpart side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ListingStatus represents the lifecycle state of a listing.
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusMatched   ListingStatus = "matched"
	ListingStatusCancelled ListingStatus = "cancelled"
	ListingStatusExpired   ListingStatus = "expired"
)

// BucketKey identifies the set of listings sharing a product and size,
// the unit of serialization for matching.
type BucketKey struct {
	ProductID string
	Size      string
}

// Listing represents a want-to-buy or want-to-sell entry in the
// marketplace catalogue.
type Listing struct {
	ListingID   string
	OwnerID     string
	Side        Side
	ProductID   string
	Size        string
	Price       int64 // cents; bid ceiling for buy, ask floor for sell
	Quantity    int64 // units not yet committed to a completed match
	Reserved    int64 // units held by pending/confirmed matches
	Status      ListingStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// Bucket returns the listing's bucket key.
func (l *Listing) Bucket() BucketKey {
	return BucketKey{ProductID: l.ProductID, Size: l.Size}
}

// Remaining returns the quantity still available for new matches.
func (l *Listing) Remaining() int64 {
	return l.Quantity - l.Reserved
}

// Matchable reports whether the listing can take part in a new match.
func (l *Listing) Matchable() bool {
	return l.Status == ListingStatusActive && l.Remaining() > 0
}
