package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gearswap/marketplace/internal/domain"
)

func newTestSweep(te *testEngine) (*Sweep, *Dispatcher) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(64, logger)
	s := NewSweep(te.settings, te.listings, te.matches, te.lifecycle, te.reconciler, d, logger)
	return s, d
}

func TestSweep_ExpiresOverduePending(t *testing.T) {
	te := newTestEngine()
	m, wtb, wts := makeMatch(t, te)
	sweep, d := newTestSweep(te)

	// Before the deadline nothing expires.
	sweep.Tick(m.ExpiresAt.Add(-time.Minute))
	d.Do(wtb.Bucket(), func() {})
	if m.Status != domain.MatchStatusPending {
		t.Fatalf("expected still pending, got %s", m.Status)
	}

	// Past the deadline the match expires and reservations come back.
	sweep.Tick(m.ExpiresAt.Add(time.Minute))
	d.Do(wtb.Bucket(), func() {})
	if m.Status != domain.MatchStatusExpired {
		t.Errorf("expected expired, got %s", m.Status)
	}
	if wtb.Reserved != 0 || wts.Reserved != 0 {
		t.Errorf("expected reservations released, got wtb=%d wts=%d", wtb.Reserved, wts.Reserved)
	}

	d.Stop()
}

func TestSweep_TickIsIdempotent(t *testing.T) {
	te := newTestEngine()
	m, _, _ := makeMatch(t, te)

	// Drop auto-matching so the tick also exercises the batch pass;
	// the expired listings re-match, which is exactly what the batch
	// is for, so count matches rather than re-running blindly.
	te.settings.SetAutoMatching(false)
	sweep, d := newTestSweep(te)

	late := m.ExpiresAt.Add(time.Minute)
	sweep.Tick(late)
	sweep.Tick(late)
	d.Do(domain.BucketKey{ProductID: m.ProductID, Size: m.Size}, func() {})

	if m.Status != domain.MatchStatusExpired {
		t.Errorf("expected expired, got %s", m.Status)
	}

	// The batch pass re-paired the released listings into exactly one
	// new pending match, not one per tick.
	status := domain.MatchStatusPending
	_, pending := te.matches.ListByMember("buyer", &status, 1, 100)
	if pending != 1 {
		t.Errorf("expected exactly 1 new pending match, got %d", pending)
	}

	d.Stop()
}

func TestSweep_BatchSkippedWhenAutoMatching(t *testing.T) {
	te := newTestEngine()
	te.addMember("buyer", 50)
	te.addMember("seller", 50)

	base := time.Now()
	te.addListing("seller", domain.SideSell, 10000, 2, base)
	wtb := te.addListing("buyer", domain.SideBuy, 10000, 2, base.Add(time.Second))

	sweep, d := newTestSweep(te)

	// Auto-matching on: the sweep leaves matching to the event path.
	sweep.Tick(time.Now())
	d.Do(wtb.Bucket(), func() {})
	if n := len(te.matches.NonTerminalByListing(wtb.ListingID)); n != 0 {
		t.Fatalf("expected no matches from sweep while auto-matching, got %d", n)
	}

	// Auto-matching off: the batch pass picks the pair up.
	te.settings.SetAutoMatching(false)
	sweep.Tick(time.Now())
	d.Do(wtb.Bucket(), func() {})
	if n := len(te.matches.NonTerminalByListing(wtb.ListingID)); n != 1 {
		t.Errorf("expected 1 match from batch pass, got %d", n)
	}

	d.Stop()
}

func TestSweep_BatchSkippedWhenMatchingDisabled(t *testing.T) {
	te := newTestEngine()
	te.addMember("buyer", 50)
	te.addMember("seller", 50)

	base := time.Now()
	te.addListing("seller", domain.SideSell, 10000, 2, base)
	wtb := te.addListing("buyer", domain.SideBuy, 10000, 2, base.Add(time.Second))

	te.settings.SetMatchingEnabled(false)
	te.settings.SetAutoMatching(false)
	sweep, d := newTestSweep(te)

	sweep.Tick(time.Now())
	d.Do(wtb.Bucket(), func() {})
	if n := len(te.matches.NonTerminalByListing(wtb.ListingID)); n != 0 {
		t.Errorf("expected no matches while matching disabled, got %d", n)
	}

	d.Stop()
}
