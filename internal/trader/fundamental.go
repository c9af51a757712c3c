package trader

import (
	"math"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"
)

// FundamentalTrader sends market orders toward the fundamental value with a
// probability that grows linearly plus cubically with the mispricing.
type FundamentalTrader struct {
	Base

	kappa1      float64
	kappa2      float64
	interval    int
	numTraders  int
	fundamental float64
}

func NewFundamentalTrader(id string, p scenario.FundamentalParams, numTraders int, fundamental float64) *FundamentalTrader {
	return &FundamentalTrader{
		Base:        newBase(id),
		kappa1:      p.Kappa1,
		kappa2:      p.Kappa2,
		interval:    max(p.UpdateInterval, 1),
		numTraders:  max(numTraders, 1),
		fundamental: fundamental,
	}
}

func (f *FundamentalTrader) Kind() Kind { return KindFundamental }

// Intensity returns the per-step order probability for the given mid.
func (f *FundamentalTrader) Intensity(mid float64) float64 {
	abs := math.Abs(f.fundamental - mid)
	demand := f.kappa1*abs + f.kappa2*abs*abs*abs
	return math.Min(1, demand/float64(f.numTraders)/100)
}

func (f *FundamentalTrader) Decide(snap domain.MarketSnapshot, rng *random.Source) []domain.Request {
	if snap.Step%f.interval != 0 {
		return nil
	}
	mid := snap.MidPrice(f.fundamental)
	if rng.Uniform() >= f.Intensity(mid) {
		return nil
	}

	mispricing := f.fundamental - mid
	switch {
	case mispricing > 0:
		return []domain.Request{f.market(domain.SideBuy, DefaultOrderQty)}
	case mispricing < 0:
		return []domain.Request{f.market(domain.SideSell, DefaultOrderQty)}
	}
	return nil
}

func (f *FundamentalTrader) SetFundamentalValue(v float64) { f.fundamental = v }

// FundamentalValue returns the value the trader currently reverts to.
func (f *FundamentalTrader) FundamentalValue() float64 { return f.fundamental }

func (f *FundamentalTrader) State() State { return f.state(f.Kind()) }
