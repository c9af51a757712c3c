package trader

import (
	"strconv"

	"exchange_sim/internal/scenario"
)

// Id prefixes per category, in roster order.
const (
	PrefixFundamental       = "ft_"
	PrefixMomentumLongTerm  = "mt_lt_"
	PrefixMomentumShortTerm = "mt_st_"
	PrefixNoise             = "nt_"
	PrefixMarketMaker       = "mm_"
	PrefixInstitutional     = "inst_"
	PrefixSpiking           = "spk_"
)

// BuildRoster creates every trader of the scenario. The returned order is
// the evaluation order of the run: category by category, then by index.
func BuildRoster(sc *scenario.Scenario) []Trader {
	fv := sc.Market.FundamentalValue
	roster := make([]Trader, 0, sc.TraderCount())

	for i := range sc.Fundamental.Count {
		roster = append(roster, NewFundamentalTrader(rosterID(PrefixFundamental, i), sc.Fundamental, sc.Fundamental.Count, fv))
	}
	for i := range sc.MomentumLongTerm.Count {
		roster = append(roster, NewMomentumTrader(rosterID(PrefixMomentumLongTerm, i), sc.MomentumLongTerm, sc.MomentumLongTerm.Count))
	}
	for i := range sc.MomentumShortTerm.Count {
		roster = append(roster, NewMomentumTrader(rosterID(PrefixMomentumShortTerm, i), sc.MomentumShortTerm, sc.MomentumShortTerm.Count))
	}
	for i := range sc.Noise.Count {
		roster = append(roster, NewNoiseTrader(rosterID(PrefixNoise, i), sc.Noise, sc.Noise.Count, fv))
	}
	for i := range sc.MarketMaker.Count {
		roster = append(roster, NewMarketMaker(rosterID(PrefixMarketMaker, i), sc.MarketMaker, fv))
	}
	for i := range sc.Institutional.Count {
		roster = append(roster, NewInstitutionalTrader(rosterID(PrefixInstitutional, i), sc.Institutional))
	}
	for i := range sc.Spiking.Count {
		roster = append(roster, NewSpikingTrader(rosterID(PrefixSpiking, i), sc.Spiking))
	}
	return roster
}

func rosterID(prefix string, i int) string {
	return prefix + strconv.Itoa(i)
}
