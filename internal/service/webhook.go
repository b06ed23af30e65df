package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	"match.created":        true,
	"match.status_changed": true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	MemberID string
	URL      string
	Events   []string
}

// WebhookService handles webhook CRUD and implements the engine's
// Notifier: match lifecycle events are delivered to both parties'
// subscriptions as fire-and-forget HTTP POSTs. Delivery failures are
// logged and dropped; they never roll back a committed match.
type WebhookService struct {
	store       *store.WebhookStore
	memberStore *store.MemberStore
	client      *http.Client
	logger      *slog.Logger
}

// NewWebhookService creates a new WebhookService with the given
// dependencies.
func NewWebhookService(
	webhookStore *store.WebhookStore,
	memberStore *store.MemberStore,
	webhookTimeout time.Duration,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		store:       webhookStore,
		memberStore: memberStore,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
		logger: logger,
	}
}

// Upsert validates the request and creates or updates webhook
// subscriptions. Returns the resulting webhooks, whether any new
// subscriptions were created, and any error.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	if !s.memberStore.Exists(req.MemberID) {
		return nil, false, domain.ErrMemberNotFound
	}

	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: match.created, match.status_changed",
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		w := &domain.Webhook{
			WebhookID: uuid.New().String(),
			MemberID:  req.MemberID,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}

		created := s.store.Upsert(w)
		if created {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else {
			existing := s.store.GetByMemberEvent(req.MemberID, event)
			if existing != nil {
				webhooks = append(webhooks, existing)
			}
		}
	}

	return webhooks, anyCreated, nil
}

// List validates the member exists and returns all of their webhook
// subscriptions.
func (s *WebhookService) List(memberID string) ([]*domain.Webhook, error) {
	if !s.memberStore.Exists(memberID) {
		return nil, domain.ErrMemberNotFound
	}
	return s.store.ListByMember(memberID), nil
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// matchEventPayload is the JSON payload for match webhooks.
type matchEventPayload struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      matchEventData `json:"data"`
}

type matchEventData struct {
	MatchID        string  `json:"match_id"`
	WTBListingID   string  `json:"wtb_listing_id"`
	WTSListingID   string  `json:"wts_listing_id"`
	BuyerID        string  `json:"buyer_id"`
	SellerID       string  `json:"seller_id"`
	ProductID      string  `json:"product_id"`
	Size           string  `json:"size"`
	Price          float64 `json:"price"`
	Score          float64 `json:"score"`
	Quantity       int64   `json:"quantity"`
	Status         string  `json:"status"`
	PreviousStatus string  `json:"previous_status,omitempty"`
	CancelReason   string  `json:"cancel_reason,omitempty"`
}

// MatchCreated delivers a match.created notification to both parties.
// Fire-and-forget.
func (s *WebhookService) MatchCreated(m *domain.Match) {
	payload := s.buildPayload("match.created", m, "")
	s.dispatchToParties(m, "match.created", payload)
}

// MatchStatusChanged delivers a match.status_changed notification to
// both parties. Fire-and-forget.
func (s *WebhookService) MatchStatusChanged(m *domain.Match, previous domain.MatchStatus) {
	payload := s.buildPayload("match.status_changed", m, previous)
	s.dispatchToParties(m, "match.status_changed", payload)
}

func (s *WebhookService) buildPayload(event string, m *domain.Match, previous domain.MatchStatus) matchEventPayload {
	return matchEventPayload{
		Event:     event,
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: matchEventData{
			MatchID:        m.MatchID,
			WTBListingID:   m.WTBListingID,
			WTSListingID:   m.WTSListingID,
			BuyerID:        m.BuyerID,
			SellerID:       m.SellerID,
			ProductID:      m.ProductID,
			Size:           m.Size,
			Price:          domain.CentsToDollars(m.Price),
			Score:          m.Score,
			Quantity:       m.Quantity,
			Status:         string(m.Status),
			PreviousStatus: string(previous),
			CancelReason:   m.CancelReason,
		},
	}
}

// dispatchToParties fans the payload out to whichever of the two
// parties subscribed to the event.
func (s *WebhookService) dispatchToParties(m *domain.Match, event string, payload matchEventPayload) {
	for _, memberID := range []string{m.BuyerID, m.SellerID} {
		wh := s.store.GetByMemberEvent(memberID, event)
		if wh == nil {
			continue
		}
		go s.deliver(wh, event, payload)
	}
}

// deliver sends the webhook payload via HTTP POST with the delivery
// headers. Failures are logged at debug level and dropped.
func (s *WebhookService) deliver(wh *domain.Webhook, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("webhook delivery failed",
			slog.String("webhook_id", wh.WebhookID),
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	resp.Body.Close()
}
