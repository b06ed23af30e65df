package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gearswap/marketplace/internal/engine"
	"github.com/gearswap/marketplace/internal/service"
)

// NewRouter creates a chi router with all routes registered, request
// logging, and Content-Type validation middleware.
func NewRouter(
	memberSvc *service.MemberService,
	listingSvc *service.ListingService,
	matchSvc *service.MatchService,
	webhookSvc *service.WebhookService,
	settings *engine.Settings,
	sweep *engine.Sweep,
	index *engine.CandidateIndex,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	memberH := NewMemberHandler(memberSvc, listingSvc, matchSvc)
	listingH := NewListingHandler(listingSvc)
	matchH := NewMatchHandler(matchSvc)
	webhookH := NewWebhookHandler(webhookSvc)
	adminH := NewAdminHandler(settings, sweep, index, listingSvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Member routes.
	r.Post("/members", memberH.Register)
	r.Get("/members/{member_id}", memberH.Get)
	r.Get("/members/{member_id}/listings", memberH.ListListings)
	r.Get("/members/{member_id}/matches", memberH.ListMatches)

	// Listing routes.
	r.Post("/listings", listingH.Create)
	r.Get("/listings/{listing_id}", listingH.Get)
	r.Delete("/listings/{listing_id}", listingH.Cancel)

	// Match routes.
	r.Get("/matches/{match_id}", matchH.Get)
	r.Post("/matches/{match_id}/confirm", matchH.Confirm)
	r.Post("/matches/{match_id}/cancel", matchH.Cancel)

	// Webhook routes.
	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	// Operator routes.
	r.Get("/admin/settings", adminH.GetSettings)
	r.Put("/admin/settings", adminH.UpdateSettings)
	r.Post("/admin/reconcile", adminH.TriggerReconcile)
	r.Post("/admin/index/rebuild", adminH.RebuildIndex)
	r.Get("/admin/buckets/{product_id}/{size}", adminH.GetBucket)

	return r
}

// requestLogging returns middleware that logs each request's method,
// path, status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST,
// PUT, and PATCH requests carrying a body. If the Content-Type header
// doesn't start with "application/json", it returns 400 Bad Request
// before the handler runs. Body-less requests (the admin triggers)
// pass through.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasBody := r.ContentLength != 0
		if hasBody && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
