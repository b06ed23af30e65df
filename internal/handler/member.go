package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/service"
)

// MemberHandler handles HTTP requests for member endpoints.
type MemberHandler struct {
	memberSvc  *service.MemberService
	listingSvc *service.ListingService
	matchSvc   *service.MatchService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(
	memberSvc *service.MemberService,
	listingSvc *service.ListingService,
	matchSvc *service.MatchService,
) *MemberHandler {
	return &MemberHandler{
		memberSvc:  memberSvc,
		listingSvc: listingSvc,
		matchSvc:   matchSvc,
	}
}

// registerMemberRequest is the JSON request body for POST /members.
type registerMemberRequest struct {
	MemberID  string `json:"member_id"`
	CredScore int64  `json:"cred_score"`
}

// memberResponse is the JSON response for member endpoints.
type memberResponse struct {
	MemberID  string `json:"member_id"`
	CredScore int64  `json:"cred_score"`
	CreatedAt string `json:"created_at"`
}

// listingListResponse is the JSON response for listing collections.
type listingListResponse struct {
	Listings []listingResponse `json:"listings"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// matchListResponse is the JSON response for match collections.
type matchListResponse struct {
	Matches []matchResponse `json:"matches"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
}

// Register handles POST /members.
func (h *MemberHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	member, err := h.memberSvc.Register(service.RegisterMemberRequest{
		MemberID:  req.MemberID,
		CredScore: req.CredScore,
	})
	if err != nil {
		mapMemberError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildMemberResponse(member))
}

// Get handles GET /members/{member_id}.
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "member_id")

	member, err := h.memberSvc.Get(memberID)
	if err != nil {
		mapMemberError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildMemberResponse(member))
}

// ListListings handles GET /members/{member_id}/listings.
func (h *MemberHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "member_id")
	page, limit := parsePagination(r)

	var status *domain.ListingStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.ListingStatus(v)
		if !service.ValidListingStatuses[s] {
			WriteError(w, http.StatusBadRequest, "validation_error",
				"status must be one of: active, matched, cancelled, expired")
			return
		}
		status = &s
	}

	listings, total, err := h.listingSvc.ListByOwner(memberID, status, page, limit)
	if err != nil {
		mapMemberError(w, err)
		return
	}

	items := make([]listingResponse, len(listings))
	for i, l := range listings {
		items[i] = buildListingResponse(l)
	}
	WriteJSON(w, http.StatusOK, listingListResponse{
		Listings: items,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

// ListMatches handles GET /members/{member_id}/matches.
func (h *MemberHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "member_id")
	page, limit := parsePagination(r)

	var status *domain.MatchStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.MatchStatus(v)
		if !service.ValidMatchStatuses[s] {
			WriteError(w, http.StatusBadRequest, "validation_error",
				"status must be one of: pending, confirmed, completed, cancelled, expired")
			return
		}
		status = &s
	}

	matches, total, err := h.matchSvc.ListByMember(memberID, status, page, limit)
	if err != nil {
		mapMemberError(w, err)
		return
	}

	items := make([]matchResponse, len(matches))
	for i, m := range matches {
		items[i] = buildMatchResponse(m)
	}
	WriteJSON(w, http.StatusOK, matchListResponse{
		Matches: items,
		Total:   total,
		Page:    page,
		Limit:   limit,
	})
}

func buildMemberResponse(m *domain.Member) memberResponse {
	return memberResponse{
		MemberID:  m.MemberID,
		CredScore: m.CredScore,
		CreatedAt: m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// mapMemberError maps domain errors to HTTP responses for member
// endpoints.
func mapMemberError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
	case errors.Is(err, domain.ErrMemberAlreadyExists):
		WriteError(w, http.StatusConflict, "member_already_exists", "A member with this ID already exists")
	case errors.Is(err, domain.ErrMemberNotFound):
		WriteError(w, http.StatusNotFound, "member_not_found", "Member not found")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
