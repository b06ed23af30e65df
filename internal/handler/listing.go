package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/service"
)

// ListingHandler handles HTTP requests for listing endpoints.
type ListingHandler struct {
	listingSvc *service.ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listingSvc *service.ListingService) *ListingHandler {
	return &ListingHandler{listingSvc: listingSvc}
}

// createListingRequest is the JSON request body for POST /listings.
type createListingRequest struct {
	OwnerID   string  `json:"owner_id"`
	Side      string  `json:"side"`
	ProductID string  `json:"product_id"`
	Size      string  `json:"size"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
}

// listingResponse is the JSON response for a single listing.
type listingResponse struct {
	ListingID         string  `json:"listing_id"`
	OwnerID           string  `json:"owner_id"`
	Side              string  `json:"side"`
	ProductID         string  `json:"product_id"`
	Size              string  `json:"size"`
	Price             float64 `json:"price"`
	Quantity          int64   `json:"quantity"`
	ReservedQuantity  int64   `json:"reserved_quantity"`
	RemainingQuantity int64   `json:"remaining_quantity"`
	Status            string  `json:"status"`
	CreatedAt         string  `json:"created_at"`
	CancelledAt       *string `json:"cancelled_at"`
}

// Create handles POST /listings.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	listing, err := h.listingSvc.Create(service.CreateListingRequest{
		OwnerID:   req.OwnerID,
		Side:      domain.Side(req.Side),
		ProductID: req.ProductID,
		Size:      req.Size,
		Price:     req.Price,
		Quantity:  req.Quantity,
	})
	if err != nil {
		mapListingError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildListingResponse(listing))
}

// Get handles GET /listings/{listing_id}.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listing_id")

	listing, err := h.listingSvc.Get(listingID)
	if err != nil {
		mapListingError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildListingResponse(listing))
}

// Cancel handles DELETE /listings/{listing_id}.
func (h *ListingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listing_id")

	listing, err := h.listingSvc.Cancel(listingID)
	if err != nil {
		mapListingError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildListingResponse(listing))
}

// buildListingResponse converts a domain listing to its response form.
func buildListingResponse(l *domain.Listing) listingResponse {
	var cancelledAt *string
	if l.CancelledAt != nil {
		s := l.CancelledAt.UTC().Format("2006-01-02T15:04:05Z")
		cancelledAt = &s
	}
	return listingResponse{
		ListingID:         l.ListingID,
		OwnerID:           l.OwnerID,
		Side:              string(l.Side),
		ProductID:         l.ProductID,
		Size:              l.Size,
		Price:             domain.CentsToDollars(l.Price),
		Quantity:          l.Quantity,
		ReservedQuantity:  l.Reserved,
		RemainingQuantity: l.Remaining(),
		Status:            string(l.Status),
		CreatedAt:         l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		CancelledAt:       cancelledAt,
	}
}

// mapListingError maps domain errors to HTTP responses for listing
// endpoints.
func mapListingError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
	case errors.Is(err, domain.ErrMemberNotFound):
		WriteError(w, http.StatusNotFound, "member_not_found", "Member not found")
	case errors.Is(err, domain.ErrListingNotFound):
		WriteError(w, http.StatusNotFound, "listing_not_found", "Listing not found")
	case errors.Is(err, domain.ErrListingNotCancellable):
		WriteError(w, http.StatusConflict, "listing_not_cancellable", "Listing is already in a terminal state")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
