// Package execution provides an in-process paper exchange: a deterministic
// price-time priority limit order book that implements domain.Matcher.
package execution

import (
	"context"
	"errors"
	"sync"

	"exchange_sim/internal/domain"
)

var (
	ErrInvalidOrder  = errors.New("invalid order")
	ErrDuplicateID   = errors.New("duplicate order id")
	ErrOrderNotFound = errors.New("order not found")
)

// Stats counts exchange activity since creation.
type Stats struct {
	Orders   uint64 `json:"orders"`
	Cancels  uint64 `json:"cancels"`
	Trades   uint64 `json:"trades"`
	Volume   int64  `json:"volume"`
	Rejected uint64 `json:"rejected"`
}

// PaperExchange matches orders synchronously inside Submit and publishes two
// fills per trade, taker first. Self-trades are allowed. Market orders sweep
// the opposite side and drop any unfilled remainder.
type PaperExchange struct {
	mu sync.Mutex

	bids   *bookSide
	asks   *bookSide
	orders map[string]*restingOrder

	tape  []domain.PublicTrade // trades since the last Snapshot
	step  int
	stats Stats
}

// NewPaperExchange creates an empty book.
func NewPaperExchange() *PaperExchange {
	return &PaperExchange{
		bids:   newBookSide(true),
		asks:   newBookSide(false),
		orders: make(map[string]*restingOrder),
	}
}

// Snapshot returns the top of book and hands over the tape.
func (p *PaperExchange) Snapshot(step int) domain.MarketSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.step = step
	snap := domain.MarketSnapshot{
		Step:     step,
		BidDepth: p.bids.depth,
		AskDepth: p.asks.depth,
		Trades:   p.tape,
	}
	if l := p.bids.best(); l != nil {
		snap.BestBid = l.price.price()
	}
	if l := p.asks.best(); l != nil {
		snap.BestAsk = l.price.price()
	}
	p.tape = nil
	return snap
}

// Submit applies one request. A rejection returns a *domain.RejectError and
// leaves the book unchanged.
func (p *PaperExchange) Submit(ctx context.Context, req domain.Request, sink domain.FillSink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	var (
		fills []domain.Fill
		err   error
	)
	switch r := req.(type) {
	case domain.OrderIntent:
		fills, err = p.submitOrder(r)
	case domain.CancelIntent:
		err = p.cancel(r)
	default:
		err = domain.NewRejectError("submit", req.RequestID(), ErrInvalidOrder)
	}
	if err != nil {
		p.stats.Rejected++
	}
	p.mu.Unlock()

	if len(fills) > 0 && sink != nil {
		sink.Publish(fills...)
	}
	return err
}

func (p *PaperExchange) submitOrder(o domain.OrderIntent) ([]domain.Fill, error) {
	if o.ID == "" || o.Qty <= 0 || (o.Side != domain.SideBuy && o.Side != domain.SideSell) {
		return nil, domain.NewRejectError("submit", o.ID, ErrInvalidOrder)
	}
	if _, exists := p.orders[o.ID]; exists {
		return nil, domain.NewRejectError("submit", o.ID, ErrDuplicateID)
	}

	var limit priceTicks
	if !o.Market {
		if limit = toTicks(o.Price); limit <= 0 {
			return nil, domain.NewRejectError("submit", o.ID, ErrInvalidOrder)
		}
	}
	p.stats.Orders++

	remaining := o.Qty
	fills := p.match(o, limit, &remaining)

	if remaining > 0 && !o.Market {
		node := &restingOrder{id: o.ID, owner: o.Owner, side: o.Side, price: limit, size: remaining}
		p.sideFor(o.Side).add(node)
		p.orders[o.ID] = node
	}
	return fills, nil
}

func (p *PaperExchange) cancel(c domain.CancelIntent) error {
	node, ok := p.orders[c.Target]
	if !ok {
		return domain.NewRejectError("cancel", c.Target, ErrOrderNotFound)
	}
	p.sideFor(node.side).remove(node)
	delete(p.orders, c.Target)
	p.stats.Cancels++
	return nil
}

// match consumes the opposite side. limit is ignored for market orders.
func (p *PaperExchange) match(taker domain.OrderIntent, limit priceTicks, remaining *int64) []domain.Fill {
	var fills []domain.Fill
	opp := p.asks
	if taker.Side == domain.SideSell {
		opp = p.bids
	}

	for *remaining > 0 {
		best := opp.best()
		if best == nil {
			break
		}
		if !taker.Market {
			if taker.Side == domain.SideBuy && best.price > limit {
				break
			}
			if taker.Side == domain.SideSell && best.price < limit {
				break
			}
		}

		for *remaining > 0 && best.head != nil {
			maker := best.head
			traded := min(*remaining, maker.size)
			price := best.price.price()

			*remaining -= traded
			opp.reduce(maker, traded)

			fills = append(fills,
				domain.Fill{
					OrderID: taker.ID, Owner: taker.Owner, Side: taker.Side,
					Qty: traded, Remaining: *remaining, Price: price, Market: taker.Market, Step: p.step,
				},
				domain.Fill{
					OrderID: maker.id, Owner: maker.owner, Side: maker.side,
					Qty: traded, Remaining: maker.size, Price: price, Step: p.step,
				},
			)
			p.tape = append(p.tape, domain.PublicTrade{Qty: traded, Price: price})
			p.stats.Trades++
			p.stats.Volume += traded

			if maker.size <= 0 {
				// remove() subtracts the remaining size, which is zero here
				opp.remove(maker)
				delete(p.orders, maker.id)
			}
		}
	}
	return fills
}

func (p *PaperExchange) sideFor(s domain.Side) *bookSide {
	if s == domain.SideBuy {
		return p.bids
	}
	return p.asks
}

// Stats returns a copy of the activity counters.
func (p *PaperExchange) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Resting reports whether id is on the book and its open size.
func (p *PaperExchange) Resting(id string) (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.orders[id]
	if !ok {
		return 0, false
	}
	return o.size, true
}
