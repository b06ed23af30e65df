package service

import (
	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/engine"
	"github.com/gearswap/marketplace/internal/store"
)

// ValidMatchStatuses lists all valid match status values for
// query-parameter validation.
var ValidMatchStatuses = map[domain.MatchStatus]bool{
	domain.MatchStatusPending:   true,
	domain.MatchStatusConfirmed: true,
	domain.MatchStatusCompleted: true,
	domain.MatchStatusCancelled: true,
	domain.MatchStatusExpired:   true,
}

// MatchService exposes match retrieval and the party-driven lifecycle
// transitions. Transitions are routed through the bucket dispatcher so
// they serialize with reconciliation for the same bucket.
type MatchService struct {
	matches    *store.MatchStore
	members    *store.MemberStore
	lifecycle  *engine.Lifecycle
	dispatcher *engine.Dispatcher
}

// NewMatchService creates a new MatchService with the given
// dependencies.
func NewMatchService(
	matches *store.MatchStore,
	members *store.MemberStore,
	lifecycle *engine.Lifecycle,
	dispatcher *engine.Dispatcher,
) *MatchService {
	return &MatchService{
		matches:    matches,
		members:    members,
		lifecycle:  lifecycle,
		dispatcher: dispatcher,
	}
}

// Get retrieves a match by ID.
func (s *MatchService) Get(id string) (*domain.Match, error) {
	return s.matches.Get(id)
}

// ListByMember returns matches where the member is a party, newest
// first, optionally filtered by status. Pagination is 1-based.
func (s *MatchService) ListByMember(memberID string, status *domain.MatchStatus, page, limit int) ([]*domain.Match, int, error) {
	if !s.members.Exists(memberID) {
		return nil, 0, domain.ErrMemberNotFound
	}
	matches, total := s.matches.ListByMember(memberID, status, page, limit)
	return matches, total, nil
}

// Confirm records the actor's confirmation of the match on the match's
// bucket worker.
func (s *MatchService) Confirm(matchID, actorID string) (*domain.Match, error) {
	if !memberIDRegex.MatchString(actorID) {
		return nil, &domain.ValidationError{
			Message: "actor_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}

	m, err := s.matches.Get(matchID)
	if err != nil {
		return nil, err
	}

	var result *domain.Match
	s.dispatcher.Do(bucketOf(m), func() {
		result, err = s.lifecycle.Confirm(matchID, actorID)
	})
	return result, err
}

// CancelMatch cancels the match on behalf of the actor, with an
// optional free-form reason.
func (s *MatchService) CancelMatch(matchID, actorID, reason string) (*domain.Match, error) {
	if !memberIDRegex.MatchString(actorID) {
		return nil, &domain.ValidationError{
			Message: "actor_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if len(reason) > 256 {
		return nil, &domain.ValidationError{
			Message: "reason must be at most 256 characters",
		}
	}
	if reason == "" {
		reason = "cancelled_by_party"
	}

	m, err := s.matches.Get(matchID)
	if err != nil {
		return nil, err
	}

	var result *domain.Match
	s.dispatcher.Do(bucketOf(m), func() {
		result, err = s.lifecycle.Cancel(matchID, actorID, reason)
	})
	return result, err
}

func bucketOf(m *domain.Match) domain.BucketKey {
	return domain.BucketKey{ProductID: m.ProductID, Size: m.Size}
}
