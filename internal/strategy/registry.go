package strategy

import (
	"fmt"
	"slices"

	"exchange_sim/internal/domain"
)

const (
	NamePassiveMM = "passive_mm"
	NameSMACross  = "sma_cross"
)

// SMA cross defaults used by the registry.
const (
	DefaultSMAShort  = 20
	DefaultSMALong   = 50
	DefaultSMAQty    = 100
	DefaultSMAMaxInv = 2000
)

var registry = map[string]func() Strategy{
	NamePassiveMM: func() Strategy { return NewPassiveMarketMaker() },
	NameSMACross: func() Strategy {
		return NewSMACrossStrategy(DefaultSMAShort, DefaultSMALong, DefaultSMAQty, DefaultSMAMaxInv)
	},
}

// New returns a fresh instance of the named strategy.
func New(name string) (Strategy, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, name)
	}
	return ctor(), nil
}

// Names lists the registered strategies in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
