package trader

import (
	"strconv"
	"testing"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoiseTrader_Rates(t *testing.T) {
	nt := NewNoiseTrader("nt_0", scenario.NoiseParams{Eta: 5, Kappa: 0.25}, 50, 4500)
	alpha, beta := nt.Rates()
	assert.Equal(t, 0.1, alpha)
	assert.InDelta(t, 0.025, beta, 1e-15)

	capped := NewNoiseTrader("nt_0", scenario.NoiseParams{Eta: -8, Kappa: 0.5}, 2, 4500)
	alpha, beta = capped.Rates()
	assert.Equal(t, 1.0, alpha)
	assert.Equal(t, 0.5, beta)
}

// TestNoiseTrader_DrawOrder replays the documented draw order on a second
// source with the same seed and checks every emitted request against it.
func TestNoiseTrader_DrawOrder(t *testing.T) {
	const (
		alpha      = 0.5
		beta       = 0.25
		cancelRate = 0.3
		mid        = 100.0
	)
	nt := NewNoiseTrader("nt_0", scenario.NoiseParams{Eta: 0.5, Kappa: 0.5, CancelRate: cancelRate}, 1, 4500)
	rng := random.New(77)
	ref := random.New(77)

	for step := 0; step < 500; step++ {
		resting := nt.Resting()
		out := nt.Decide(book(step, 99.9, 100.1), rng)

		var want []string
		for _, id := range resting {
			if ref.Uniform() < cancelRate {
				want = append(want, "cancel:"+id)
			}
		}
		if ref.Uniform() < alpha {
			side := domain.SideSell
			if ref.Uniform() < 0.5 {
				side = domain.SideBuy
			}
			off := ref.LogNormal(-5, 1) / 10000
			price := mid + off
			if side == domain.SideBuy {
				price = mid - off
			}
			want = append(want, "limit:"+string(side)+":"+priceKey(RoundPrice(price)))
		}
		if ref.Uniform() < beta {
			side := domain.SideSell
			if ref.Uniform() < 0.5 {
				side = domain.SideBuy
			}
			want = append(want, "market:"+string(side))
		}

		var got []string
		for _, r := range out {
			switch v := r.(type) {
			case domain.CancelIntent:
				got = append(got, "cancel:"+v.Target)
			case domain.OrderIntent:
				if v.Market {
					got = append(got, "market:"+string(v.Side))
				} else {
					got = append(got, "limit:"+string(v.Side)+":"+priceKey(v.Price))
				}
			}
		}
		require.Equal(t, want, got, "step %d", step)
		require.Equal(t, ref.Draws(), rng.Draws(), "step %d", step)
	}
}

func TestNoiseTrader_EmptyBookUsesFundamental(t *testing.T) {
	nt := NewNoiseTrader("nt_0", scenario.NoiseParams{Eta: 10, Kappa: 0}, 1, 4500)
	rng := random.New(5)

	orders := orderIntents(nt.Decide(book(0, 0, 0), rng))
	require.Len(t, orders, 1)
	assert.InDelta(t, 4500, orders[0].Price, 0.1)

	nt.SetFundamentalValue(0)
	assert.Empty(t, orderIntents(nt.Decide(book(1, 0, 0), rng)), "no price to quote around")
}

func priceKey(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}
