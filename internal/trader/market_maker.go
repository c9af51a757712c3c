package trader

import (
	"errors"
	"fmt"
	"math"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"
)

const (
	// MarketMakerQuoteQty is the size of each side of a quote pair.
	MarketMakerQuoteQty int64 = 500
	// MarketMakerUnwindQty caps one stressed unwind order.
	MarketMakerUnwindQty int64 = 500
	minQuoteEdge               = 0.1
)

// ErrInventoryLimit is returned when a new inventory limit would not stay
// above the safe inventory.
var ErrInventoryLimit = errors.New("inventory limit must exceed safe inventory")

// MarketMaker quotes a symmetric pair around mid. When |position| reaches
// the inventory limit it enters stressed mode: it pulls its quotes and unwinds
// with market orders until |position| <= safeInventory. After the stress
// clears it stays silent until restartStep.
type MarketMaker struct {
	Base

	inventoryLimit int64
	safeInventory  int64
	restPeriod     int
	spreadEdge     float64
	gamma          float64
	delta          float64
	fundamental    float64

	stressed    bool
	restartStep int
}

// NewMarketMaker creates a maker. fundamental is the mid fallback for an
// empty book.
func NewMarketMaker(id string, p scenario.MarketMakerParams, fundamental float64) *MarketMaker {
	return &MarketMaker{
		Base:           newBase(id),
		inventoryLimit: p.InventoryLimit,
		safeInventory:  p.SafeInventory,
		restPeriod:     p.RestPeriod,
		spreadEdge:     p.SpreadEdge,
		gamma:          p.Gamma,
		delta:          p.Delta,
		fundamental:    fundamental,
	}
}

func (m *MarketMaker) Kind() Kind { return KindMarketMaker }

func (m *MarketMaker) Decide(snap domain.MarketSnapshot, rng *random.Source) []domain.Request {
	mid := snap.MidPrice(m.fundamental)
	if mid == 0 {
		return nil
	}

	abs := absInt(m.position)
	if abs >= m.inventoryLimit {
		m.stressed = true
		m.restartStep = snap.Step + m.restPeriod
	}
	if m.stressed && abs <= m.safeInventory {
		m.stressed = false
	}

	var out []domain.Request
	switch {
	case m.stressed:
		out = m.cancelAll(out)
		if m.position > 0 {
			out = append(out, m.market(domain.SideSell, min(m.position, MarketMakerUnwindQty)))
		} else if m.position < 0 {
			out = append(out, m.market(domain.SideBuy, min(-m.position, MarketMakerUnwindQty)))
		}

	case snap.Step >= m.restartStep:
		if rng.Uniform() < m.delta {
			out = m.cancelAll(out)
		}
		if rng.Uniform() < m.gamma {
			edge := math.Max(minQuoteEdge, rng.Uniform()*m.spreadEdge)
			out = append(out,
				m.limit(domain.SideBuy, RoundPrice(mid-edge), MarketMakerQuoteQty),
				m.limit(domain.SideSell, RoundPrice(mid+edge), MarketMakerQuoteQty),
			)
		}
	}
	// silent between stress exit and restartStep
	return out
}

// Stressed reports whether the maker is unwinding.
func (m *MarketMaker) Stressed() bool { return m.stressed }

// RestartStep is the first step the maker may quote again after stress.
func (m *MarketMaker) RestartStep() int { return m.restartStep }

// SetInventoryLimit changes the stress entry threshold.
func (m *MarketMaker) SetInventoryLimit(limit int64) error {
	if limit <= m.safeInventory {
		return fmt.Errorf("%w: limit %d, safe %d", ErrInventoryLimit, limit, m.safeInventory)
	}
	m.inventoryLimit = limit
	return nil
}

// SetDelta changes the cancel-all probability.
func (m *MarketMaker) SetDelta(delta float64) { m.delta = delta }

func (m *MarketMaker) SetFundamentalValue(v float64) { m.fundamental = v }

func (m *MarketMaker) State() State { return m.state(m.Kind()) }

func absInt(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
