package engine

import (
	"math"

	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"
)

// minFundamental is the floor of the fundamental value (one tick).
const minFundamental = 0.1

// FundamentalProcess moves the fundamental value as a driftless geometric
// random walk: every interval steps fv *= exp(-σ²/2 + σz).
// It draws from its own source so the trader stream is unaffected.
type FundamentalProcess struct {
	value      float64
	volatility float64
	interval   int
	rng        *random.Source
}

// NewFundamentalProcess seeds the walk with seed+1.
func NewFundamentalProcess(p scenario.MarketParams, seed int64) *FundamentalProcess {
	return &FundamentalProcess{
		value:      p.FundamentalValue,
		volatility: p.Volatility,
		interval:   p.UpdateInterval,
		rng:        random.New(seed + 1),
	}
}

// Value returns the current fundamental value.
func (f *FundamentalProcess) Value() float64 { return f.value }

// Volatility returns the per-update volatility.
func (f *FundamentalProcess) Volatility() float64 { return f.volatility }

// SetVolatility replaces the volatility from the next update on.
func (f *FundamentalProcess) SetVolatility(v float64) { f.volatility = v }

// Shock adds delta to the value.
func (f *FundamentalProcess) Shock(delta float64) {
	f.value = max(f.value+delta, minFundamental)
}

// Advance updates the value if step is an update step and reports whether it
// did. Step 0 is never an update step.
func (f *FundamentalProcess) Advance(step int) bool {
	if f.interval <= 0 || step == 0 || step%f.interval != 0 {
		return false
	}
	sigma := f.volatility
	z := f.rng.Gaussian()
	f.value = max(f.value*math.Exp(-0.5*sigma*sigma+sigma*z), minFundamental)
	return true
}
