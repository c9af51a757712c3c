package trader

import (
	"math"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"
)

// MomentumTrader follows an exponential moving average of mid changes.
// Order intensity scales with tanh(momentum) and shrinks with the number of
// traders sharing the parameters.
type MomentumTrader struct {
	Base

	rho        float64
	chi        float64
	psi        float64
	cancelRate float64
	numTraders int

	momentum float64
	lastMid  float64 // 0 until the first mid is seen
}

// NewMomentumTrader creates a trader; numTraders is the size of its category.
func NewMomentumTrader(id string, p scenario.MomentumParams, numTraders int) *MomentumTrader {
	return &MomentumTrader{
		Base:       newBase(id),
		rho:        p.Rho,
		chi:        p.Chi,
		psi:        p.Psi,
		cancelRate: p.CancelRate,
		numTraders: max(numTraders, 1),
	}
}

func (m *MomentumTrader) Kind() Kind { return KindMomentum }

func (m *MomentumTrader) Decide(snap domain.MarketSnapshot, rng *random.Source) []domain.Request {
	// 1. Cancel draws, one per resting order
	out := m.cancelRandomly(rng, m.cancelRate, nil)

	// 2. No book, no signal
	mid := snap.MidPrice(0)
	if mid == 0 {
		return out
	}

	// 3. Update the accumulator
	if m.lastMid > 0 {
		m.momentum = (1-m.rho)*m.momentum + m.rho*(mid-m.lastMid)
	}
	t := math.Tanh(m.momentum)
	n := float64(m.numTraders)
	limitProb := math.Min(1, math.Abs(m.chi*t/n))
	marketProb := math.Min(1, math.Abs(m.psi*t/n))

	side := domain.SideBuy
	if m.momentum < 0 {
		side = domain.SideSell
	}

	// 4. Both draws are consumed every step, signal or not
	if rng.Uniform() < limitProb && m.momentum != 0 {
		offset := limitOffset(rng)
		price := mid - offset
		if side == domain.SideSell {
			price = mid + offset
		}
		out = append(out, m.limit(side, RoundPrice(price), DefaultOrderQty))
	}
	if rng.Uniform() < marketProb && m.momentum != 0 {
		out = append(out, m.market(side, DefaultOrderQty))
	}

	m.lastMid = mid
	return out
}

// Momentum returns the current accumulator.
func (m *MomentumTrader) Momentum() float64 { return m.momentum }

func (m *MomentumTrader) State() State { return m.state(m.Kind()) }
