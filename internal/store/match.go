package store

import (
	"sync"
	"time"

	"github.com/gearswap/marketplace/internal/domain"
)

// pairKey identifies the ordered (wtb, wts) listing pair of a match.
type pairKey struct {
	wtbListingID string
	wtsListingID string
}

// MatchStore is a thread-safe in-memory store for matches, with a
// primary index by match_id, secondary indexes by listing and by
// member, and an active-pair index that enforces the rule that no two
// non-terminal matches reference the same (wtb, wts) listing pair.
// Matches are never deleted; terminal matches stay for audit.
type MatchStore struct {
	mu          sync.RWMutex
	matches     map[string]*domain.Match
	byListing   map[string][]*domain.Match // listing_id → matches (append-only)
	byMember    map[string][]*domain.Match // member_id → matches (append-only)
	activePairs map[pairKey]string         // pair → match_id of the non-terminal match
}

// NewMatchStore creates an empty MatchStore.
func NewMatchStore() *MatchStore {
	return &MatchStore{
		matches:     make(map[string]*domain.Match),
		byListing:   make(map[string][]*domain.Match),
		byMember:    make(map[string][]*domain.Match),
		activePairs: make(map[pairKey]string),
	}
}

// Create adds a match to the store and registers its listing pair as
// active. The caller must have checked ActivePairExists first; Create
// is still safe to call twice for the same pair, the second call
// overwrites the pair index entry.
func (s *MatchStore) Create(m *domain.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches[m.MatchID] = m
	s.byListing[m.WTBListingID] = append(s.byListing[m.WTBListingID], m)
	s.byListing[m.WTSListingID] = append(s.byListing[m.WTSListingID], m)
	s.byMember[m.BuyerID] = append(s.byMember[m.BuyerID], m)
	s.byMember[m.SellerID] = append(s.byMember[m.SellerID], m)
	s.activePairs[pairKey{m.WTBListingID, m.WTSListingID}] = m.MatchID
}

// Get retrieves a match by ID. It returns
// domain.ErrMatchNotFound if the match does not exist.
func (s *MatchStore) Get(id string) (*domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return m, nil
}

// ActivePairExists reports whether a non-terminal match already
// references the ordered (wtb, wts) listing pair.
func (s *MatchStore) ActivePairExists(wtbListingID, wtsListingID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.activePairs[pairKey{wtbListingID, wtsListingID}]
	return ok
}

// Resolve drops the match's listing pair from the active-pair index.
// The lifecycle manager calls it after moving a match to a terminal
// state. Idempotent.
func (s *MatchStore) Resolve(m *domain.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{m.WTBListingID, m.WTSListingID}
	if s.activePairs[key] == m.MatchID {
		delete(s.activePairs, key)
	}
}

// NonTerminalByListing returns the non-terminal matches referencing a
// listing, oldest first.
func (s *MatchStore) NonTerminalByListing(listingID string) []*domain.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Match, 0)
	for _, m := range s.byListing[listingID] {
		if !m.Status.Terminal() {
			result = append(result, m)
		}
	}
	return result
}

// ListByMember returns matches where the member is a party, in reverse
// chronological order (newest first). If status is non-nil, only
// matches in that status are included. Pagination is 1-based. Returns
// the page and the total count before pagination.
func (s *MatchStore) ListByMember(memberID string, status *domain.MatchStatus, page, limit int) ([]*domain.Match, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byMember[memberID]

	filtered := make([]*domain.Match, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if status != nil && all[i].Status != *status {
			continue
		}
		filtered = append(filtered, all[i])
	}

	total := len(filtered)

	start := (page - 1) * limit
	if start >= total {
		return []*domain.Match{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return filtered[start:end], total
}

// PendingBefore returns pending matches whose confirmation deadline is
// at or before the cutoff. The expiration sweep is the only caller.
func (s *MatchStore) PendingBefore(cutoff time.Time) []*domain.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Match, 0)
	for _, m := range s.matches {
		if m.Status == domain.MatchStatusPending && !m.ExpiresAt.After(cutoff) {
			result = append(result, m)
		}
	}
	return result
}
