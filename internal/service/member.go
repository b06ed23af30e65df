package service

import (
	"regexp"
	"time"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/store"
)

var memberIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// RegisterMemberRequest represents the input for member registration.
type RegisterMemberRequest struct {
	MemberID  string
	CredScore int64
}

// MemberService handles member registration and retrieval.
type MemberService struct {
	store *store.MemberStore
}

// NewMemberService creates a new MemberService.
func NewMemberService(memberStore *store.MemberStore) *MemberService {
	return &MemberService{store: memberStore}
}

// Register validates the request and creates the member.
func (s *MemberService) Register(req RegisterMemberRequest) (*domain.Member, error) {
	if !memberIDRegex.MatchString(req.MemberID) {
		return nil, &domain.ValidationError{
			Message: "member_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if req.CredScore < 0 || req.CredScore > 100 {
		return nil, &domain.ValidationError{
			Message: "cred_score must be between 0 and 100",
		}
	}

	m := &domain.Member{
		MemberID:  req.MemberID,
		CredScore: req.CredScore,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get retrieves a member by ID.
func (s *MemberService) Get(id string) (*domain.Member, error) {
	return s.store.Get(id)
}
