package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/service"
)

// MatchHandler handles HTTP requests for match endpoints.
type MatchHandler struct {
	matchSvc *service.MatchService
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matchSvc *service.MatchService) *MatchHandler {
	return &MatchHandler{matchSvc: matchSvc}
}

// confirmMatchRequest is the JSON request body for
// POST /matches/{match_id}/confirm.
type confirmMatchRequest struct {
	ActorID string `json:"actor_id"`
}

// cancelMatchRequest is the JSON request body for
// POST /matches/{match_id}/cancel.
type cancelMatchRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
}

// matchResponse is the JSON response for a single match.
type matchResponse struct {
	MatchID           string  `json:"match_id"`
	WTBListingID      string  `json:"wtb_listing_id"`
	WTSListingID      string  `json:"wts_listing_id"`
	BuyerID           string  `json:"buyer_id"`
	SellerID          string  `json:"seller_id"`
	ProductID         string  `json:"product_id"`
	Size              string  `json:"size"`
	Price             float64 `json:"price"`
	Score             float64 `json:"score"`
	Quantity          int64   `json:"quantity"`
	Status            string  `json:"status"`
	BuyerConfirmedAt  *string `json:"buyer_confirmed_at"`
	SellerConfirmedAt *string `json:"seller_confirmed_at"`
	ExpiresAt         string  `json:"expires_at"`
	CancelReason      string  `json:"cancel_reason,omitempty"`
	CreatedAt         string  `json:"created_at"`
	ResolvedAt        *string `json:"resolved_at"`
}

// Get handles GET /matches/{match_id}.
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "match_id")

	m, err := h.matchSvc.Get(matchID)
	if err != nil {
		mapMatchError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildMatchResponse(m))
}

// Confirm handles POST /matches/{match_id}/confirm.
func (h *MatchHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "match_id")

	var req confirmMatchRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	m, err := h.matchSvc.Confirm(matchID, req.ActorID)
	if err != nil {
		mapMatchError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildMatchResponse(m))
}

// Cancel handles POST /matches/{match_id}/cancel.
func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "match_id")

	var req cancelMatchRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	m, err := h.matchSvc.CancelMatch(matchID, req.ActorID, req.Reason)
	if err != nil {
		mapMatchError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildMatchResponse(m))
}

// buildMatchResponse converts a domain match to its response form.
func buildMatchResponse(m *domain.Match) matchResponse {
	return matchResponse{
		MatchID:           m.MatchID,
		WTBListingID:      m.WTBListingID,
		WTSListingID:      m.WTSListingID,
		BuyerID:           m.BuyerID,
		SellerID:          m.SellerID,
		ProductID:         m.ProductID,
		Size:              m.Size,
		Price:             domain.CentsToDollars(m.Price),
		Score:             m.Score,
		Quantity:          m.Quantity,
		Status:            string(m.Status),
		BuyerConfirmedAt:  formatTimePtr(m.BuyerConfirmedAt),
		SellerConfirmedAt: formatTimePtr(m.SellerConfirmedAt),
		ExpiresAt:         m.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"),
		CancelReason:      m.CancelReason,
		CreatedAt:         m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		ResolvedAt:        formatTimePtr(m.ResolvedAt),
	}
}

// mapMatchError maps domain errors to HTTP responses for match
// endpoints.
func mapMatchError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
	case errors.Is(err, domain.ErrMatchNotFound):
		WriteError(w, http.StatusNotFound, "match_not_found", "Match not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, "invalid_transition",
			"The match cannot make this transition for this actor")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
