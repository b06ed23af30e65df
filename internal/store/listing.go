package store

import (
	"sort"
	"sync"
	"time"

	"github.com/gearswap/marketplace/internal/domain"
)

// ListingStore is a thread-safe in-memory store for listings, with a
// primary index by listing_id and secondary indexes by owner and by
// (product_id, size) bucket. It owns the quantity/reservation
// accounting: all quantity mutations go through Reserve, Release,
// Commit, and Cancel so the overcommit invariant is enforced in one
// place.
type ListingStore struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
	byOwner  map[string][]*domain.Listing               // owner_id → listings (append-only)
	byBucket map[domain.BucketKey]map[string]*domain.Listing // bucket → listing_id → listing
}

// NewListingStore creates an empty ListingStore.
func NewListingStore() *ListingStore {
	return &ListingStore{
		listings: make(map[string]*domain.Listing),
		byOwner:  make(map[string][]*domain.Listing),
		byBucket: make(map[domain.BucketKey]map[string]*domain.Listing),
	}
}

// Create adds a listing to the store and its secondary indexes.
func (s *ListingStore) Create(l *domain.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listings[l.ListingID] = l
	s.byOwner[l.OwnerID] = append(s.byOwner[l.OwnerID], l)

	key := l.Bucket()
	if s.byBucket[key] == nil {
		s.byBucket[key] = make(map[string]*domain.Listing)
	}
	s.byBucket[key][l.ListingID] = l
}

// Get retrieves a listing by ID. It returns
// domain.ErrListingNotFound if the listing does not exist.
func (s *ListingStore) Get(id string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return l, nil
}

// ActiveByBucket returns the active listings for a bucket on the given
// side, ordered oldest-first. The candidate index uses this to rebuild
// itself; the result is a fresh slice the caller may keep.
func (s *ListingStore) ActiveByBucket(key domain.BucketKey, side domain.Side) []*domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Listing, 0)
	for _, l := range s.byBucket[key] {
		if l.Side == side && l.Status == domain.ListingStatusActive {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ListingID < result[j].ListingID
	})
	return result
}

// Buckets returns the keys of all buckets that hold at least one
// listing, in no particular order.
func (s *ListingStore) Buckets() []domain.BucketKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]domain.BucketKey, 0, len(s.byBucket))
	for key := range s.byBucket {
		keys = append(keys, key)
	}
	return keys
}

// ListByOwner returns listings for an owner in reverse chronological
// order (newest first). If status is non-nil, only listings matching
// that status are included. Pagination is 1-based. Returns the page
// and the total count of matching listings before pagination.
func (s *ListingStore) ListByOwner(ownerID string, status *domain.ListingStatus, page, limit int) ([]*domain.Listing, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byOwner[ownerID]

	filtered := make([]*domain.Listing, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if status != nil && all[i].Status != *status {
			continue
		}
		filtered = append(filtered, all[i])
	}

	total := len(filtered)

	start := (page - 1) * limit
	if start >= total {
		return []*domain.Listing{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return filtered[start:end], total
}

// Reserve holds qty units of a listing for a match being created. It
// returns domain.ErrReservationConflict when the listing is not active
// or qty exceeds the uncommitted remainder, so a reconciliation pass
// that lost the race simply moves on to the next candidate.
func (s *ListingStore) Reserve(id string, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	if l.Status != domain.ListingStatusActive || qty <= 0 || qty > l.Remaining() {
		return domain.ErrReservationConflict
	}
	l.Reserved += qty
	return nil
}

// Release returns qty previously reserved units to a listing, after a
// match is cancelled or expires. The reservation never goes negative.
func (s *ListingStore) Release(id string, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return
	}
	l.Reserved -= qty
	if l.Reserved < 0 {
		l.Reserved = 0
	}
}

// Commit finalizes qty reserved units when a match completes: the units
// leave both the reservation and the listing's quantity. A listing
// whose quantity reaches zero transitions to matched and is no longer
// eligible for the candidate index.
func (s *ListingStore) Commit(id string, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return
	}
	l.Quantity -= qty
	l.Reserved -= qty
	if l.Quantity < 0 {
		l.Quantity = 0
	}
	if l.Reserved < 0 {
		l.Reserved = 0
	}
	if l.Quantity == 0 {
		l.Status = domain.ListingStatusMatched
	}
}

// Cancel transitions a listing to cancelled. It returns
// domain.ErrListingNotFound if the listing does not exist and
// domain.ErrListingNotCancellable if it is already terminal.
func (s *ListingStore) Cancel(id string, at time.Time) (*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	if l.Status != domain.ListingStatusActive {
		return nil, domain.ErrListingNotCancellable
	}
	l.Status = domain.ListingStatusCancelled
	l.CancelledAt = &at
	return l, nil
}
