package domain

// PublicTrade is a trade printed on the tape. Side-agnostic.
type PublicTrade struct {
	Qty   int64   `json:"qty"`
	Price float64 `json:"price"`
}

// MarketSnapshot is the read-only market view handed to every trader in a
// step. A zero BestBid or BestAsk means that side of the book is empty.
// Traders must not modify Trades.
type MarketSnapshot struct {
	Step     int           `json:"step"`
	BestBid  float64       `json:"best_bid"`
	BestAsk  float64       `json:"best_ask"`
	BidDepth int64         `json:"bid_depth"`
	AskDepth int64         `json:"ask_depth"`
	Trades   []PublicTrade `json:"trades,omitempty"`
}

// MidPrice returns the bid/ask midpoint. With one side missing it returns the
// other side, and with both missing it returns fallback.
func (s MarketSnapshot) MidPrice(fallback float64) float64 {
	switch {
	case s.BestBid == 0 && s.BestAsk == 0:
		return fallback
	case s.BestBid == 0:
		return s.BestAsk
	case s.BestAsk == 0:
		return s.BestBid
	default:
		return (s.BestBid + s.BestAsk) / 2
	}
}

// Spread returns ask - bid, or 0 when either side is missing.
func (s MarketSnapshot) Spread() float64 {
	if s.BestBid == 0 || s.BestAsk == 0 {
		return 0
	}
	return s.BestAsk - s.BestBid
}

// TradedVolume sums the quantity of all public trades in the snapshot.
func (s MarketSnapshot) TradedVolume() int64 {
	var total int64
	for _, tr := range s.Trades {
		total += tr.Qty
	}
	return total
}
