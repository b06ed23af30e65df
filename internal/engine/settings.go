package engine

import (
	"sync/atomic"
	"time"
)

// Settings holds the operator toggles consumed by the matching engine.
// All fields are safe for concurrent read and update, so an admin
// surface can flip them at runtime without restarting the engine.
type Settings struct {
	matchingEnabled atomic.Bool
	autoMatching    atomic.Bool
	interval        atomic.Int64 // sweep interval, nanoseconds
}

// NewSettings creates a Settings with the given initial values.
func NewSettings(matchingEnabled, autoMatching bool, interval time.Duration) *Settings {
	s := &Settings{}
	s.matchingEnabled.Store(matchingEnabled)
	s.autoMatching.Store(autoMatching)
	s.interval.Store(int64(interval))
	return s
}

// MatchingEnabled reports whether reconciliation runs at all. When
// false, listing events still maintain the candidate index but no
// matches are created.
func (s *Settings) MatchingEnabled() bool {
	return s.matchingEnabled.Load()
}

// SetMatchingEnabled updates the matching toggle.
func (s *Settings) SetMatchingEnabled(v bool) {
	s.matchingEnabled.Store(v)
}

// AutoMatching reports whether listing changes trigger an immediate
// reconciliation pass. When false, matching only happens on the
// periodic sweep or a manual batch trigger.
func (s *Settings) AutoMatching() bool {
	return s.autoMatching.Load()
}

// SetAutoMatching updates the auto-matching toggle.
func (s *Settings) SetAutoMatching(v bool) {
	s.autoMatching.Store(v)
}

// Interval returns the periodic sweep interval.
func (s *Settings) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SetInterval updates the sweep interval. Values below one second are
// clamped to one second.
func (s *Settings) SetInterval(d time.Duration) {
	if d < time.Second {
		d = time.Second
	}
	s.interval.Store(int64(d))
}
