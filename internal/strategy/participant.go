package strategy

import (
	"slices"
	"strconv"

	"exchange_sim/internal/domain"

	"github.com/shopspring/decimal"
)

// MaxOpenOrders caps the participant's resting orders; the oldest are
// cancelled first once the cap is reached.
const MaxOpenOrders = 50

// Participant turns strategy actions into requests owned by one id.
// Its order ids are "<id>-<n>", so two runs with the same seed submit the
// same ids.
type Participant struct {
	id      string
	strat   Strategy
	seq     uint64
	resting []string
}

// NewParticipant binds strat to id.
func NewParticipant(id string, strat Strategy) *Participant {
	return &Participant{id: id, strat: strat}
}

func (p *Participant) ID() string { return p.id }

func (p *Participant) Strategy() string { return p.strat.Name() }

// Resting returns the participant's open order ids, oldest first.
func (p *Participant) Resting() []string { return slices.Clone(p.resting) }

// Decide builds the view from snap and returns the requests for this step.
func (p *Participant) Decide(snap domain.MarketSnapshot, fundamental float64, inventory int64) []domain.Request {
	view := View{
		Step:      snap.Step,
		BestBid:   snap.BestBid,
		BestAsk:   snap.BestAsk,
		Mid:       snap.MidPrice(fundamental),
		Inventory: inventory,
	}
	actions := p.strat.OnMarketUpdate(view)
	if len(actions) == 0 {
		return nil
	}

	var out []domain.Request
	for _, a := range actions {
		if a.Qty <= 0 {
			continue
		}
		o := domain.OrderIntent{
			Owner:     p.id,
			ID:        p.nextID(),
			Side:      a.Type.Side(),
			Qty:       a.Qty,
			Market:    a.Market,
			SelfTrade: true,
		}
		if !a.Market {
			o.Price = decimal.NewFromFloat(a.Price).Round(1).InexactFloat64()
			if o.Price <= 0 {
				continue
			}
			for len(p.resting) >= MaxOpenOrders {
				out = append(out, domain.CancelIntent{Owner: p.id, ID: p.nextID(), Target: p.resting[0]})
				p.resting = p.resting[1:]
			}
			p.resting = append(p.resting, o.ID)
		}
		out = append(out, o)
	}
	return out
}

// OnFill drops fully consumed orders from the resting set.
func (p *Participant) OnFill(f domain.Fill) {
	if !f.Filled() {
		return
	}
	if i := slices.Index(p.resting, f.OrderID); i >= 0 {
		p.resting = slices.Delete(p.resting, i, i+1)
	}
}

func (p *Participant) nextID() string {
	p.seq++
	return p.id + "-" + strconv.FormatUint(p.seq, 10)
}
