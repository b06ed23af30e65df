package domain

import "time"

// Webhook represents a member's subscription to a match event
// notification.
type Webhook struct {
	WebhookID string
	MemberID  string
	Event     string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
