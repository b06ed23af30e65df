package service

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/gearswap/marketplace/internal/domain"
	"github.com/gearswap/marketplace/internal/engine"
	"github.com/gearswap/marketplace/internal/store"
)

var (
	productIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	sizeRegex      = regexp.MustCompile(`^[a-zA-Z0-9.]{1,16}$`)
)

// ValidListingStatuses lists all valid listing status values for
// query-parameter validation.
var ValidListingStatuses = map[domain.ListingStatus]bool{
	domain.ListingStatusActive:    true,
	domain.ListingStatusMatched:   true,
	domain.ListingStatusCancelled: true,
	domain.ListingStatusExpired:   true,
}

// CreateListingRequest represents the input for listing creation.
type CreateListingRequest struct {
	OwnerID   string
	Side      domain.Side
	ProductID string
	Size      string
	Price     float64 // dollars
	Quantity  int64
}

// ListingService handles listing creation, retrieval, listing, and
// cancellation, and feeds every listing change through the bucket
// dispatcher so the candidate index and the reconciler see changes in
// order.
type ListingService struct {
	listings   *store.ListingStore
	members    *store.MemberStore
	index      *engine.CandidateIndex
	reconciler *engine.Reconciler
	lifecycle  *engine.Lifecycle
	dispatcher *engine.Dispatcher
	settings   *engine.Settings
}

// NewListingService creates a new ListingService with the given
// dependencies.
func NewListingService(
	listings *store.ListingStore,
	members *store.MemberStore,
	index *engine.CandidateIndex,
	reconciler *engine.Reconciler,
	lifecycle *engine.Lifecycle,
	dispatcher *engine.Dispatcher,
	settings *engine.Settings,
) *ListingService {
	return &ListingService{
		listings:   listings,
		members:    members,
		index:      index,
		reconciler: reconciler,
		lifecycle:  lifecycle,
		dispatcher: dispatcher,
		settings:   settings,
	}
}

// Create validates the request, persists the listing, indexes it, and,
// when auto-matching is on, runs an immediate reconciliation pass for
// its bucket. The matches a pass creates are delivered through the
// notifier; Create itself returns only the listing.
func (s *ListingService) Create(req CreateListingRequest) (*domain.Listing, error) {
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown side: %s. Must be one of: buy, sell", req.Side),
		}
	}
	if !memberIDRegex.MatchString(req.OwnerID) {
		return nil, &domain.ValidationError{
			Message: "owner_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !productIDRegex.MatchString(req.ProductID) {
		return nil, &domain.ValidationError{
			Message: "product_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !sizeRegex.MatchString(req.Size) {
		return nil, &domain.ValidationError{
			Message: "size must match ^[a-zA-Z0-9.]{1,16}$",
		}
	}
	if req.Quantity <= 0 {
		return nil, &domain.ValidationError{
			Message: "quantity must be a positive integer",
		}
	}
	price, err := domain.DollarsToCents(req.Price)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	if price <= 0 {
		return nil, &domain.ValidationError{
			Message: "price must be greater than zero",
		}
	}
	if !s.members.Exists(req.OwnerID) {
		return nil, domain.ErrMemberNotFound
	}

	l := &domain.Listing{
		ListingID: uuid.New().String(),
		OwnerID:   req.OwnerID,
		Side:      req.Side,
		ProductID: req.ProductID,
		Size:      req.Size,
		Price:     price,
		Quantity:  req.Quantity,
		Status:    domain.ListingStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	s.listings.Create(l)

	s.dispatcher.Do(l.Bucket(), func() {
		s.index.GetOrCreate(l.Bucket()).Upsert(l)
		if s.settings.MatchingEnabled() && s.settings.AutoMatching() {
			s.reconciler.Reconcile(l.ListingID)
		}
	})

	return l, nil
}

// Get retrieves a listing by ID.
func (s *ListingService) Get(id string) (*domain.Listing, error) {
	return s.listings.Get(id)
}

// ListByOwner returns an owner's listings, newest first, optionally
// filtered by status. Pagination is 1-based.
func (s *ListingService) ListByOwner(ownerID string, status *domain.ListingStatus, page, limit int) ([]*domain.Listing, int, error) {
	if !s.members.Exists(ownerID) {
		return nil, 0, domain.ErrMemberNotFound
	}
	listings, total := s.listings.ListByOwner(ownerID, status, page, limit)
	return listings, total, nil
}

// Cancel withdraws a listing. The cancellation runs on the listing's
// bucket worker: the listing leaves the candidate index, every
// non-terminal match referencing it is cancelled with reservations
// released, and freed counterpart quantity is re-reconciled when
// auto-matching is on.
func (s *ListingService) Cancel(listingID string) (*domain.Listing, error) {
	l, err := s.listings.Get(listingID)
	if err != nil {
		return nil, err
	}

	var cancelErr error
	s.dispatcher.Do(l.Bucket(), func() {
		var cancelled *domain.Listing
		cancelled, cancelErr = s.listings.Cancel(listingID, time.Now().UTC())
		if cancelErr != nil {
			return
		}
		s.index.GetOrCreate(cancelled.Bucket()).Remove(listingID)

		matches := s.lifecycle.CancelForListing(listingID, "listing_cancelled")
		if !s.settings.MatchingEnabled() || !s.settings.AutoMatching() {
			return
		}
		for _, m := range matches {
			counterpart := m.WTBListingID
			if counterpart == listingID {
				counterpart = m.WTSListingID
			}
			s.reconciler.Reconcile(counterpart)
		}
	})
	if cancelErr != nil {
		return nil, cancelErr
	}
	return l, nil
}

// RebuildIndex replays every active listing from the store into a
// fresh candidate index. Operator escape hatch for when the derived
// view is suspected to have drifted.
func (s *ListingService) RebuildIndex() {
	s.index.Rebuild(s.listings)
}
