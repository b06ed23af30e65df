package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/engine"
	"github.com/gearswap/marketplace/internal/service"
)

// AdminHandler exposes the operator surface: runtime matching
// settings, the manual batch-matching trigger, candidate index
// rebuild, and per-bucket diagnostics.
type AdminHandler struct {
	settings   *engine.Settings
	sweep      *engine.Sweep
	index      *engine.CandidateIndex
	listingSvc *service.ListingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	settings *engine.Settings,
	sweep *engine.Sweep,
	index *engine.CandidateIndex,
	listingSvc *service.ListingService,
) *AdminHandler {
	return &AdminHandler{
		settings:   settings,
		sweep:      sweep,
		index:      index,
		listingSvc: listingSvc,
	}
}

// settingsResponse is the JSON representation of the runtime settings.
type settingsResponse struct {
	MatchingEnabled  bool   `json:"matching_enabled"`
	AutoMatching     bool   `json:"auto_matching"`
	MatchingInterval string `json:"matching_interval"`
}

// updateSettingsRequest is the JSON request body for PUT
// /admin/settings. Absent fields keep their current value.
type updateSettingsRequest struct {
	MatchingEnabled  *bool   `json:"matching_enabled"`
	AutoMatching     *bool   `json:"auto_matching"`
	MatchingInterval *string `json:"matching_interval"`
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.buildSettingsResponse())
}

// UpdateSettings handles PUT /admin/settings.
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if req.MatchingInterval != nil {
		d, err := time.ParseDuration(*req.MatchingInterval)
		if err != nil || d < time.Second {
			WriteError(w, http.StatusBadRequest, "validation_error",
				"matching_interval must be a duration of at least 1s")
			return
		}
		h.settings.SetInterval(d)
	}
	if req.MatchingEnabled != nil {
		h.settings.SetMatchingEnabled(*req.MatchingEnabled)
	}
	if req.AutoMatching != nil {
		h.settings.SetAutoMatching(*req.AutoMatching)
	}

	WriteJSON(w, http.StatusOK, h.buildSettingsResponse())
}

// TriggerReconcile handles POST /admin/reconcile: a manual batch
// matching pass over every bucket, independent of the auto-matching
// toggle.
func (h *AdminHandler) TriggerReconcile(w http.ResponseWriter, r *http.Request) {
	if !h.settings.MatchingEnabled() {
		WriteError(w, http.StatusConflict, "matching_disabled",
			"Matching is disabled; enable it before triggering a batch pass")
		return
	}
	h.sweep.BatchReconcile()
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "reconciliation scheduled"})
}

// RebuildIndex handles POST /admin/index/rebuild.
func (h *AdminHandler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	h.listingSvc.RebuildIndex()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "index rebuilt"})
}

// bucketBookResponse is the JSON response for bucket diagnostics.
// The counts come from a read-only view and may trail the workers.
type bucketBookResponse struct {
	ProductID string            `json:"product_id"`
	Size      string            `json:"size"`
	BuyCount  int               `json:"buy_count"`
	SellCount int               `json:"sell_count"`
	Buys      []listingResponse `json:"buys"`
	Sells     []listingResponse `json:"sells"`
}

// GetBucket handles GET /admin/buckets/{product_id}/{size}.
func (h *AdminHandler) GetBucket(w http.ResponseWriter, r *http.Request) {
	key := domain.BucketKey{
		ProductID: chi.URLParam(r, "product_id"),
		Size:      chi.URLParam(r, "size"),
	}
	bucket := h.index.GetOrCreate(key)

	buys := bucket.Candidates(domain.SideBuy)
	sells := bucket.Candidates(domain.SideSell)

	resp := bucketBookResponse{
		ProductID: key.ProductID,
		Size:      key.Size,
		BuyCount:  len(buys),
		SellCount: len(sells),
		Buys:      make([]listingResponse, len(buys)),
		Sells:     make([]listingResponse, len(sells)),
	}
	for i, l := range buys {
		resp.Buys[i] = buildListingResponse(l)
	}
	for i, l := range sells {
		resp.Sells[i] = buildListingResponse(l)
	}

	WriteJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) buildSettingsResponse() settingsResponse {
	return settingsResponse{
		MatchingEnabled:  h.settings.MatchingEnabled(),
		AutoMatching:     h.settings.AutoMatching(),
		MatchingInterval: h.settings.Interval().String(),
	}
}
