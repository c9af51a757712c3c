package trader

import (
	"math"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"
)

// NoiseTrader places random-side orders at constant rates.
type NoiseTrader struct {
	Base

	alpha       float64 // limit order probability
	beta        float64 // market order probability
	cancelRate  float64
	fundamental float64
}

func NewNoiseTrader(id string, p scenario.NoiseParams, numTraders int, fundamental float64) *NoiseTrader {
	alpha := math.Min(math.Abs(p.Eta)/float64(max(numTraders, 1)), 1)
	return &NoiseTrader{
		Base:        newBase(id),
		alpha:       alpha,
		beta:        p.Kappa * alpha,
		cancelRate:  p.CancelRate,
		fundamental: fundamental,
	}
}

func (n *NoiseTrader) Kind() Kind { return KindNoise }

// Draw order: cancels, limit draw, [side, offset], market draw, [side].
func (n *NoiseTrader) Decide(snap domain.MarketSnapshot, rng *random.Source) []domain.Request {
	out := n.cancelRandomly(rng, n.cancelRate, nil)
	mid := snap.MidPrice(n.fundamental)

	if rng.Uniform() < n.alpha {
		side := randomSide(rng)
		offset := limitOffset(rng)
		price := mid - offset
		if side == domain.SideSell {
			price = mid + offset
		}
		// an empty book with no fundamental has no price to quote around
		if price = RoundPrice(price); price > 0 {
			out = append(out, n.limit(side, price, DefaultOrderQty))
		}
	}
	if rng.Uniform() < n.beta {
		out = append(out, n.market(randomSide(rng), DefaultOrderQty))
	}
	return out
}

// Rates returns the limit and market order probabilities.
func (n *NoiseTrader) Rates() (alpha, beta float64) { return n.alpha, n.beta }

func (n *NoiseTrader) SetFundamentalValue(v float64) { n.fundamental = v }

func (n *NoiseTrader) State() State { return n.state(n.Kind()) }

func randomSide(rng *random.Source) domain.Side {
	if rng.Uniform() < 0.5 {
		return domain.SideBuy
	}
	return domain.SideSell
}
