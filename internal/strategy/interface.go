package strategy

import (
	"exchange_sim/internal/domain"
)

// ActionType defines the type of trading action
type ActionType int

const (
	ActionBuy  ActionType = iota + 1
	ActionSell // Sell
)

// String returns the string representation of ActionType
func (a ActionType) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Side maps the action to an order side.
func (a ActionType) Side() domain.Side {
	if a == ActionSell {
		return domain.SideSell
	}
	return domain.SideBuy
}

// Action represents a decision made by the strategy.
// Price is ignored when Market is set.
type Action struct {
	Type   ActionType
	Price  float64
	Qty    int64
	Market bool
}

// View is what the participant sees each step: the book top, the mid
// (fundamental value when the book is one-sided) and its own inventory.
type View struct {
	Step      int
	BestBid   float64
	BestAsk   float64
	Mid       float64
	Inventory int64
}

// Strategy is the interface that all participant strategies must implement.
// It is called synchronously by the simulation, after every trader.
type Strategy interface {
	Name() string
	// OnMarketUpdate is called once per step.
	// It returns a list of Actions to be executed.
	OnMarketUpdate(v View) []Action
}
