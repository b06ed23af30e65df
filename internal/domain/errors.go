package domain

import "errors"

// Sentinel errors for domain-level error handling, compared with
// errors.Is(). The handler layer maps these to HTTP status codes.
var (
	// ErrMemberAlreadyExists is returned on registration when the
	// member id is already taken.
	ErrMemberAlreadyExists = errors.New("member_already_exists")

	// ErrMemberNotFound is returned when no member matches the given id.
	ErrMemberNotFound = errors.New("member_not_found")

	// ErrListingNotFound is returned when no listing matches the given id.
	ErrListingNotFound = errors.New("listing_not_found")

	// ErrListingNotCancellable is returned when a cancel is attempted on
	// a listing already in a terminal state.
	ErrListingNotCancellable = errors.New("listing_not_cancellable")

	// ErrMatchNotFound is returned when no match matches the given id.
	ErrMatchNotFound = errors.New("match_not_found")

	// ErrInvalidTransition is returned when a lifecycle call is illegal
	// for the match's current state or the acting member is not a party.
	ErrInvalidTransition = errors.New("invalid_transition")

	// ErrReservationConflict is returned by the listing store when a
	// reservation would overcommit a listing or the listing is no longer
	// active. The reconciler consumes it and moves on to the next
	// candidate; it is never surfaced to callers.
	ErrReservationConflict = errors.New("reservation_conflict")

	// ErrWebhookNotFound is returned when no webhook subscription
	// matches the given id.
	ErrWebhookNotFound = errors.New("webhook_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
