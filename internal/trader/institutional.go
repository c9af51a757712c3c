package trader

import (
	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"
)

// minInstitutionalClip is the smallest child order unless less inventory
// is left.
const minInstitutionalClip int64 = 100

// InstitutionalTrader sells its inventory as a fixed share of the trailing
// traded volume, at most once every orderInterval steps, from startStep on.
// It never draws from the random source.
type InstitutionalTrader struct {
	Base

	inventory     int64
	pov           float64
	orderInterval int
	startStep     int

	lastOrderStep int // -1 until the first order
	window        *VolumeWindow
}

func NewInstitutionalTrader(id string, p scenario.InstitutionalParams) *InstitutionalTrader {
	return &InstitutionalTrader{
		Base:          newBase(id),
		inventory:     p.InitialInventory,
		pov:           p.PercentageOfVolume,
		orderInterval: p.OrderIntervalSteps,
		startStep:     p.StartStep,
		lastOrderStep: -1,
		window:        NewVolumeWindow(VolumeWindowCapacity),
	}
}

func (it *InstitutionalTrader) Kind() Kind { return KindInstitutional }

func (it *InstitutionalTrader) Decide(snap domain.MarketSnapshot, _ *random.Source) []domain.Request {
	// 1. The window sees every step, including those before start
	it.window.Add(snap.TradedVolume())

	// 2. Gates
	if snap.Step < it.startStep || it.inventory <= 0 {
		return nil
	}
	if it.lastOrderStep >= 0 && snap.Step-it.lastOrderStep < it.orderInterval {
		return nil
	}

	// 3. Size
	qty := it.ClipSize()
	if qty <= 0 {
		return nil
	}
	it.inventory -= qty
	it.lastOrderStep = snap.Step
	return []domain.Request{it.market(domain.SideSell, qty)}
}

// ClipSize returns the size the next child order would have.
func (it *InstitutionalTrader) ClipSize() int64 {
	marketVolume := max(it.window.Sum(), 100)
	target := int64(it.pov * float64(marketVolume))
	qty := min(target, it.inventory)
	if qty < minInstitutionalClip {
		qty = min(minInstitutionalClip, it.inventory)
	}
	return qty
}

// RemainingInventory returns what is left to sell.
func (it *InstitutionalTrader) RemainingInventory() int64 { return it.inventory }

// RollingVolume returns the trailing traded volume.
func (it *InstitutionalTrader) RollingVolume() int64 { return it.window.Sum() }

// LastOrderStep returns the step of the latest child order, or -1.
func (it *InstitutionalTrader) LastOrderStep() int { return it.lastOrderStep }

func (it *InstitutionalTrader) State() State { return it.state(it.Kind()) }
