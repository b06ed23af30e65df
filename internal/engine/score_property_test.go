package engine

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/gearswap/marketplace/internal/domain"
)

func TestProperty_ScoreDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		buyQty := rapid.Int64Range(1, 1000).Draw(t, "buyQty")
		sellQty := rapid.Int64Range(1, 1000).Draw(t, "sellQty")
		cred := rapid.Int64Range(0, 100).Draw(t, "cred")
		ageSec := rapid.Int64Range(0, 864000).Draw(t, "ageSec")

		now := time.Unix(1_700_000_000, 0)
		wtb := scoreListing(domain.SideBuy, 10000, buyQty, now.Add(-time.Hour))
		wts := scoreListing(domain.SideSell, 10000, sellQty, now.Add(-time.Duration(ageSec)*time.Second))

		ctx := ScoreContext{
			CounterpartSide: domain.SideSell,
			CounterpartCred: cred,
			Now:             now,
			Horizon:         7 * 24 * time.Hour,
			Weights:         DefaultScoreWeights,
		}

		first := Score(wtb, wts, ctx)
		for i := 0; i < 3; i++ {
			if again := Score(wtb, wts, ctx); again != first {
				t.Fatalf("score not deterministic: %v then %v", first, again)
			}
		}
	})
}

func TestProperty_ScoreBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		buyQty := rapid.Int64Range(1, 1_000_000).Draw(t, "buyQty")
		sellQty := rapid.Int64Range(1, 1_000_000).Draw(t, "sellQty")
		cred := rapid.Int64Range(-50, 500).Draw(t, "cred")
		ageSec := rapid.Int64Range(-3600, 10_000_000).Draw(t, "ageSec")
		wq := rapid.Float64Range(0, 10).Draw(t, "wq")
		wr := rapid.Float64Range(0, 10).Draw(t, "wr")
		wc := rapid.Float64Range(0.001, 10).Draw(t, "wc")

		now := time.Unix(1_700_000_000, 0)
		wtb := scoreListing(domain.SideBuy, 10000, buyQty, now)
		wts := scoreListing(domain.SideSell, 10000, sellQty, now.Add(-time.Duration(ageSec)*time.Second))

		got := Score(wtb, wts, ScoreContext{
			CounterpartSide: domain.SideSell,
			CounterpartCred: cred,
			Now:             now,
			Horizon:         24 * time.Hour,
			Weights:         ScoreWeights{QuantityFit: wq, Reputation: wr, Recency: wc},
		})
		if got < 0 || got > 1 {
			t.Fatalf("score %v out of [0,1]", got)
		}
	})
}
