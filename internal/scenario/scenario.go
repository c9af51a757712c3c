package scenario

import (
	"fmt"

	"exchange_sim/internal/domain"
)

const (
	DefaultSeed             int64   = 42
	DefaultSteps                    = 36000
	DefaultFundamentalValue float64 = 4500
	DefaultVolatility       float64 = 0.02
)

// Scenario is a fully defaulted and transformed scenario. Traders are built
// from it and never see raw configuration values.
type Scenario struct {
	Name        string
	Description string
	Seed        int64
	Steps       int
	Market      MarketParams

	Fundamental       FundamentalParams
	MomentumLongTerm  MomentumParams
	MomentumShortTerm MomentumParams
	Noise             NoiseParams
	MarketMaker       MarketMakerParams
	Institutional     InstitutionalParams
	Spiking           SpikingParams

	Events []Event
}

// MarketParams describes the fundamental process. UpdateInterval 0 keeps the
// fundamental value static except for scheduled events.
type MarketParams struct {
	FundamentalValue float64
	Volatility       float64
	UpdateInterval   int
}

type FundamentalParams struct {
	Count          int
	Kappa1         float64
	Kappa2         float64
	UpdateInterval int
}

type MomentumParams struct {
	Count      int
	Rho        float64
	Chi        float64
	Psi        float64
	CancelRate float64
}

type NoiseParams struct {
	Count      int
	Eta        float64
	Kappa      float64
	CancelRate float64
}

type MarketMakerParams struct {
	Count          int
	InventoryLimit int64
	SafeInventory  int64
	RestPeriod     int
	SpreadEdge     float64
	Gamma          float64
	Delta          float64
}

// InstitutionalParams are already in the step domain.
type InstitutionalParams struct {
	Count              int
	InitialInventory   int64
	PercentageOfVolume float64
	OrderIntervalSteps int
	StartStep          int
}

type SpikingParams struct {
	Count                 int
	SpikeLength           int
	ActivationProbability float64
	OrderVolume           int64
}

// TraderCount returns the total roster size.
func (s *Scenario) TraderCount() int {
	return s.Fundamental.Count + s.MomentumLongTerm.Count + s.MomentumShortTerm.Count +
		s.Noise.Count + s.MarketMaker.Count + s.Institutional.Count + s.Spiking.Count
}

// Resolve applies defaults and transforms exactly once and validates the
// result.
func (f *File) Resolve() (*Scenario, error) {
	s := &Scenario{
		Name:        f.Name,
		Description: f.Description,
		Seed:        valueOr(f.Seed, DefaultSeed),
		Steps:       valueOr(f.Steps, DefaultSteps),
		Market: MarketParams{
			FundamentalValue: valueOr(f.Market.InitialFundamentalValue, DefaultFundamentalValue),
			Volatility:       valueOr(f.Market.Volatility, DefaultVolatility),
			UpdateInterval:   valueOr(f.Market.FundamentalUpdateInterval, 0),
		},
	}

	if r := f.Traders.Fundamental; r != nil {
		s.Fundamental = FundamentalParams{
			Count:          valueOr(r.Count, 0),
			Kappa1:         valueOr(r.Kappa1, 0.5),
			Kappa2:         valueOr(r.Kappa2, 0.001),
			UpdateInterval: valueOr(r.Interval, 1),
		}
	}
	if r := f.Traders.MomentumLongTerm; r != nil {
		s.MomentumLongTerm = r.resolve(0.01, 50)
	}
	if r := f.Traders.MomentumShortTerm; r != nil {
		s.MomentumShortTerm = r.resolve(0.9, 80)
	}
	if r := f.Traders.Noise; r != nil {
		s.Noise = NoiseParams{
			Count:      valueOr(r.Count, 0),
			Eta:        firstOr(5, r.Eta, r.Sigma),
			Kappa:      valueOr(r.Kappa, 0.25),
			CancelRate: valueOr(r.CancelRate, 0.05),
		}
	}
	if r := f.Traders.MarketMaker; r != nil {
		s.MarketMaker = MarketMakerParams{
			Count:          valueOr(r.Count, 0),
			InventoryLimit: valueOr(r.InventoryLimit, 5000),
			SafeInventory:  valueOr(r.SafeInventory, 2000),
			RestPeriod:     valueOr(r.RestPeriod, 600),
			SpreadEdge:     firstOr(2.0, r.MaxEdge, r.SpreadEdge),
			Gamma:          valueOr(r.Gamma, 0.8),
			Delta:          valueOr(r.Delta, 0.3),
		}
	}
	if r := f.Traders.Institutional; r != nil {
		p := InstitutionalParams{
			Count:              valueOr(r.Count, 0),
			InitialInventory:   valueOr(r.InitialInventory, 0),
			PercentageOfVolume: ScalePercentage(valueOr(r.PercentageOfVolume, 9)),
			OrderIntervalSteps: ScaleInterval(valueOr(r.OrderInterval, 12)),
		}
		switch {
		case r.StartStep != nil:
			p.StartStep = *r.StartStep
		case r.StartTime != nil:
			p.StartStep = ParseStartTime(*r.StartTime)
		}
		s.Institutional = p
	}
	if r := f.Traders.Spiking; r != nil {
		s.Spiking = SpikingParams{
			Count:                 valueOr(r.Count, 0),
			SpikeLength:           valueOr(r.SpikeLength, 4),
			ActivationProbability: valueOr(r.ActivationProbability, 0.005),
			OrderVolume:           valueOr(r.OrderVolume, 100),
		}
	}

	for i, e := range f.Events {
		ev, err := e.resolve()
		if err != nil {
			return nil, &domain.ConfigError{Field: fmt.Sprintf("events[%d]", i), Err: err}
		}
		s.Events = append(s.Events, ev)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *MomentumRaw) resolve(defaultRho, defaultChi float64) MomentumParams {
	chi := firstOr(defaultChi, r.Chi, r.Beta)
	return MomentumParams{
		Count:      valueOr(r.Count, 0),
		Rho:        firstOr(defaultRho, r.DecayRate, r.Alpha),
		Chi:        chi,
		Psi:        valueOr(r.Psi, chi*0.3),
		CancelRate: valueOr(r.CancelRate, 0.05),
	}
}

// Validate checks the resolved parameters.
func (s *Scenario) Validate() error {
	noMM := s.MarketMaker.Count == 0
	checks := []struct {
		field string
		ok    bool
		msg   string
	}{
		{"steps", s.Steps > 0, "must be positive"},
		{"market.initialFundamentalValue", s.Market.FundamentalValue >= 0, "must not be negative"},
		{"market.volatility", s.Market.Volatility >= 0, "must not be negative"},
		{"market.fundamentalUpdateInterval", s.Market.UpdateInterval >= 0, "must not be negative"},

		{"fundamental.count", s.Fundamental.Count >= 0, "must not be negative"},
		{"fundamental.interval", s.Fundamental.Count == 0 || s.Fundamental.UpdateInterval > 0, "must be positive"},

		{"momentumLongTerm.count", s.MomentumLongTerm.Count >= 0, "must not be negative"},
		{"momentumLongTerm.cancelRate", isProbability(s.MomentumLongTerm.CancelRate), "must be in [0,1]"},
		{"momentumShortTerm.count", s.MomentumShortTerm.Count >= 0, "must not be negative"},
		{"momentumShortTerm.cancelRate", isProbability(s.MomentumShortTerm.CancelRate), "must be in [0,1]"},

		{"noise.count", s.Noise.Count >= 0, "must not be negative"},
		{"noise.kappa", s.Noise.Kappa >= 0, "must not be negative"},
		{"noise.cancelRate", isProbability(s.Noise.CancelRate), "must be in [0,1]"},

		{"marketMaker.count", s.MarketMaker.Count >= 0, "must not be negative"},
		{"marketMaker.inventoryLimit", noMM || s.MarketMaker.InventoryLimit > 0, "must be positive"},
		{"marketMaker.safeInventory", noMM || (s.MarketMaker.SafeInventory >= 0 && s.MarketMaker.SafeInventory < s.MarketMaker.InventoryLimit),
			"must be non-negative and below inventoryLimit"},
		{"marketMaker.restPeriod", s.MarketMaker.RestPeriod >= 0, "must not be negative"},
		{"marketMaker.spreadEdge", s.MarketMaker.SpreadEdge >= 0, "must not be negative"},
		{"marketMaker.gamma", isProbability(s.MarketMaker.Gamma), "must be in [0,1]"},
		{"marketMaker.delta", isProbability(s.MarketMaker.Delta), "must be in [0,1]"},

		{"institutional.count", s.Institutional.Count >= 0, "must not be negative"},
		{"institutional.initialInventory", s.Institutional.InitialInventory >= 0, "must not be negative"},
		{"institutional.percentageOfVolume", s.Institutional.PercentageOfVolume >= 0, "must not be negative"},
		{"institutional.orderInterval", s.Institutional.OrderIntervalSteps >= 0, "must not be negative"},

		{"spiking.count", s.Spiking.Count >= 0, "must not be negative"},
		{"spiking.spikeLength", s.Spiking.Count == 0 || s.Spiking.SpikeLength > 0, "must be positive"},
		{"spiking.activationProbability", isProbability(s.Spiking.ActivationProbability), "must be in [0,1]"},
		{"spiking.orderVolume", s.Spiking.Count == 0 || s.Spiking.OrderVolume > 0, "must be positive"},
	}
	for _, c := range checks {
		if !c.ok {
			return &domain.ConfigError{Field: c.field, Err: fmt.Errorf("%w: %s", domain.ErrInvalidScenario, c.msg)}
		}
	}
	return nil
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// firstOr returns the first non-nil value, or def.
func firstOr[T any](def T, ps ...*T) T {
	for _, p := range ps {
		if p != nil {
			return *p
		}
	}
	return def
}
