package store

import (
	"sync"

	"github.com/gearswap/marketplace/internal/domain"
)

// MemberStore is a thread-safe in-memory store for members,
// keyed by member_id.
type MemberStore struct {
	mu      sync.RWMutex
	members map[string]*domain.Member
}

// NewMemberStore creates an empty MemberStore.
func NewMemberStore() *MemberStore {
	return &MemberStore{
		members: make(map[string]*domain.Member),
	}
}

// Create adds a member to the store. It returns
// domain.ErrMemberAlreadyExists if a member with the same ID
// already exists.
func (s *MemberStore) Create(m *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[m.MemberID]; exists {
		return domain.ErrMemberAlreadyExists
	}
	s.members[m.MemberID] = m
	return nil
}

// Get retrieves a member by ID. It returns
// domain.ErrMemberNotFound if the member does not exist.
func (s *MemberStore) Get(id string) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return m, nil
}

// Exists returns true if a member with the given ID exists.
func (s *MemberStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.members[id]
	return ok
}

// CredScore returns the member's reputation score, or 0 when the
// member is unknown. Scoring treats a missing member as untrusted
// rather than failing the pass.
func (s *MemberStore) CredScore(id string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return 0
	}
	return m.CredScore
}
