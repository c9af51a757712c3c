// Package trader implements the agent policies that populate the simulated
// market. Every policy is a synchronous state machine: the orchestrator calls
// Decide once per step in roster order, passing the shared random source, and
// routes fills back through OnFill.
package trader

import (
	"slices"
	"strconv"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"

	"github.com/shopspring/decimal"
)

// Kind identifies a trader policy.
type Kind string

const (
	KindFundamental   Kind = "fundamental"
	KindMomentum      Kind = "momentum"
	KindNoise         Kind = "noise"
	KindMarketMaker   Kind = "market_maker"
	KindInstitutional Kind = "institutional"
	KindSpiking       Kind = "spiking"
)

// DefaultOrderQty is the clip size of momentum, fundamental and noise orders.
const DefaultOrderQty int64 = 100

// Trader is one agent of the simulation.
// Decide must not block and must draw from rng only on the calling goroutine.
type Trader interface {
	ID() string
	Kind() Kind
	Decide(snap domain.MarketSnapshot, rng *random.Source) []domain.Request
	OnFill(f domain.Fill)
	Position() int64
	State() State
}

// FundamentalAware is implemented by traders that fall back to, or trade
// toward, the fundamental value.
type FundamentalAware interface {
	SetFundamentalValue(v float64)
}

// State is a read-only copy of a trader's shared state (for state dump).
type State struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Position int64    `json:"position"`
	Resting  []string `json:"resting,omitempty"`
}

// Base holds the state shared by every policy: position, resting order ids
// in insertion order, and the order id counter. Policies embed it.
type Base struct {
	id       string
	position int64
	resting  []string
	seq      uint64
}

func newBase(id string) Base {
	return Base{id: id}
}

func (b *Base) ID() string { return b.id }

func (b *Base) Position() int64 { return b.position }

// Resting returns a copy of the resting order ids in submission order.
func (b *Base) Resting() []string { return slices.Clone(b.resting) }

// OnFill applies a fill to the position. A fully consumed order leaves the
// resting set.
func (b *Base) OnFill(f domain.Fill) {
	b.position += f.Side.Sign() * f.Qty
	if f.Filled() {
		b.forget(f.OrderID)
	}
}

func (b *Base) state(kind Kind) State {
	return State{ID: b.id, Kind: kind, Position: b.position, Resting: b.Resting()}
}

// nextID returns "<traderID>-<n>". Ids are never reused.
func (b *Base) nextID() string {
	b.seq++
	return b.id + "-" + strconv.FormatUint(b.seq, 10)
}

func (b *Base) limit(side domain.Side, price float64, qty int64) domain.OrderIntent {
	o := domain.OrderIntent{
		Owner:     b.id,
		ID:        b.nextID(),
		Side:      side,
		Price:     price,
		Qty:       qty,
		SelfTrade: true,
	}
	b.resting = append(b.resting, o.ID)
	return o
}

func (b *Base) market(side domain.Side, qty int64) domain.OrderIntent {
	return domain.OrderIntent{
		Owner:     b.id,
		ID:        b.nextID(),
		Side:      side,
		Qty:       qty,
		Market:    true,
		SelfTrade: true,
	}
}

func (b *Base) cancel(target string) domain.CancelIntent {
	b.forget(target)
	return domain.CancelIntent{Owner: b.id, ID: b.nextID(), Target: target}
}

// cancelAll appends a cancel for every resting order, oldest first.
func (b *Base) cancelAll(out []domain.Request) []domain.Request {
	targets := b.Resting()
	for _, id := range targets {
		out = append(out, b.cancel(id))
	}
	return out
}

// cancelRandomly draws once per resting order, oldest first, and cancels
// those whose draw falls below p.
func (b *Base) cancelRandomly(rng *random.Source, p float64, out []domain.Request) []domain.Request {
	var targets []string
	for _, id := range b.resting {
		if rng.Uniform() < p {
			targets = append(targets, id)
		}
	}
	for _, id := range targets {
		out = append(out, b.cancel(id))
	}
	return out
}

func (b *Base) forget(orderID string) {
	if i := slices.Index(b.resting, orderID); i >= 0 {
		b.resting = slices.Delete(b.resting, i, i+1)
	}
}

// RoundPrice rounds to the 0.1 tick.
func RoundPrice(p float64) float64 {
	return decimal.NewFromFloat(p).Round(1).InexactFloat64()
}

// limitOffset draws the passive distance from mid used by momentum and
// noise traders.
func limitOffset(rng *random.Source) float64 {
	return rng.LogNormal(-5, 1) / 10000
}
