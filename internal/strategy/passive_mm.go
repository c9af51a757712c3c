package strategy

// PassiveMarketMaker quotes one side at mid every TradeFreq steps, alternating
// BUY and SELL, shifted against its inventory. It stops adding risk once
// |inventory| reaches MaxInventory.
type PassiveMarketMaker struct {
	SkewFactor   float64
	MaxInventory int64
	Qty          int64
	TradeFreq    int
}

// Defaults for NewPassiveMarketMaker.
const (
	DefaultSkewFactor       = 0.008
	DefaultPassiveMaxInv    = 3000
	DefaultPassiveQty       = 200
	DefaultPassiveTradeFreq = 15
)

// NewPassiveMarketMaker returns a quoter with the default parameters.
func NewPassiveMarketMaker() *PassiveMarketMaker {
	return &PassiveMarketMaker{
		SkewFactor:   DefaultSkewFactor,
		MaxInventory: DefaultPassiveMaxInv,
		Qty:          DefaultPassiveQty,
		TradeFreq:    DefaultPassiveTradeFreq,
	}
}

func (p *PassiveMarketMaker) Name() string { return NamePassiveMM }

func (p *PassiveMarketMaker) OnMarketUpdate(v View) []Action {
	if p.TradeFreq <= 0 || v.Step%p.TradeFreq != 0 {
		return nil
	}
	if v.Mid <= 0 || abs64(v.Inventory) >= p.MaxInventory {
		return nil
	}

	skew := -p.SkewFactor * float64(v.Inventory)
	a := Action{Type: ActionBuy, Price: v.Mid + skew, Qty: p.Qty}
	if (v.Step/p.TradeFreq)%2 != 0 {
		a.Type = ActionSell
	}
	if a.Price <= 0 {
		return nil
	}
	return []Action{a}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
