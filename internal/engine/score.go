package engine

import (
	"fmt"
	"time"

	"github.com/gearswap/marketplace/internal/domain"
)

// ScoreWeights holds the relative weights of the three compatibility
// sub-scores. Weights must be non-negative and sum to a positive
// value; Normalize scales them to sum to 1.
type ScoreWeights struct {
	QuantityFit float64
	Reputation  float64
	Recency     float64
}

// DefaultScoreWeights are the out-of-the-box weights. The exact split
// is an operator-tunable parameter, not a fixed contract.
var DefaultScoreWeights = ScoreWeights{
	QuantityFit: 0.40,
	Reputation:  0.40,
	Recency:     0.20,
}

// Validate checks that the weights are non-negative and not all zero.
func (w ScoreWeights) Validate() error {
	if w.QuantityFit < 0 || w.Reputation < 0 || w.Recency < 0 {
		return fmt.Errorf("score weights must be non-negative")
	}
	if w.QuantityFit+w.Reputation+w.Recency == 0 {
		return fmt.Errorf("score weights must not all be zero")
	}
	return nil
}

// Normalize returns a copy of the weights scaled to sum to 1. The
// caller must have validated the weights first.
func (w ScoreWeights) Normalize() ScoreWeights {
	total := w.QuantityFit + w.Reputation + w.Recency
	return ScoreWeights{
		QuantityFit: w.QuantityFit / total,
		Reputation:  w.Reputation / total,
		Recency:     w.Recency / total,
	}
}

// ScoreContext carries everything Score needs beyond the two listings
// themselves. The evaluation instant is fixed by the caller once per
// reconciliation pass, so repeated calls with the same context are
// reproducible.
type ScoreContext struct {
	// CounterpartSide says which of the two listings is the candidate
	// being ranked (the triggering listing is the other one).
	CounterpartSide domain.Side
	// CounterpartCred is the candidate owner's reputation in [0,100].
	CounterpartCred int64
	// Now is the evaluation instant for the recency sub-score.
	Now time.Time
	// Horizon is the listing age at which the recency sub-score
	// reaches zero.
	Horizon time.Duration
	Weights ScoreWeights
}

// Crosses reports whether the pair is price-compatible: the buyer's
// ceiling must meet or exceed the seller's floor.
func Crosses(wtb, wts *domain.Listing) bool {
	return wtb.Price >= wts.Price
}

// Score computes the compatibility score of a (wtb, wts) pair in
// [0,1] as a weighted sum of quantity-fit, counterpart reputation, and
// counterpart listing recency. It is a total, deterministic function:
// identical inputs always produce identical output, and no input
// combination fails. Ties between equally scored candidates are broken
// by the caller on the counterpart's created_at, oldest first.
func Score(wtb, wts *domain.Listing, ctx ScoreContext) float64 {
	w := ctx.Weights.Normalize()

	counterpart := wtb
	if ctx.CounterpartSide == domain.SideSell {
		counterpart = wts
	}

	s := w.QuantityFit*quantityFit(wtb.Remaining(), wts.Remaining()) +
		w.Reputation*reputation(ctx.CounterpartCred) +
		w.Recency*recency(counterpart.CreatedAt, ctx.Now, ctx.Horizon)

	return clamp01(s)
}

// quantityFit is min/max of the two remaining quantities: 1 for a
// perfect fit, approaching 0 as the sizes diverge.
func quantityFit(a, b int64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}

// reputation maps a credScore in [0,100] onto [0,1], clamping
// out-of-range values.
func reputation(cred int64) float64 {
	if cred <= 0 {
		return 0
	}
	if cred >= 100 {
		return 1
	}
	return float64(cred) / 100
}

// recency decays linearly from 1 for a brand-new listing to 0 once
// the listing's age reaches the horizon.
func recency(createdAt, now time.Time, horizon time.Duration) float64 {
	if horizon <= 0 {
		return 0
	}
	age := now.Sub(createdAt)
	if age <= 0 {
		return 1
	}
	if age >= horizon {
		return 0
	}
	return 1 - float64(age)/float64(horizon)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
