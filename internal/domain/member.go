package domain

import "time"

// Member represents a marketplace account that owns listings and is a
// party to matches.
type Member struct {
	MemberID  string
	CredScore int64 // reputation signal in [0,100], scoring input
	CreatedAt time.Time
}
