package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InitialBalance is the cash baseline every participant starts with.
var InitialBalance = decimal.NewFromInt(100000)

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Step   int     `json:"step"`
	Equity float64 `json:"equity"`
	Mark   float64 `json:"mark"`
}

// Ledger tracks inventory and cash PnL of the distinguished participant.
// It is mutated only by the orchestrator on the step goroutine.
type Ledger struct {
	Owner string

	cash             decimal.Decimal // signed cash PnL, baseline excluded
	inventory        int64
	maxInventory     int64
	aggressiveVolume int64
	fills            []Fill
	equity           []EquityPoint
	blowup           bool
	blowupReason     string
}

// NewLedger creates an empty ledger for owner.
func NewLedger(owner string) *Ledger {
	return &Ledger{Owner: owner}
}

// Apply folds one fill into the ledger. BUY debits cash and adds inventory,
// SELL does the reverse. Panics if the fill belongs to someone else.
func (l *Ledger) Apply(f Fill) {
	if f.Owner != l.Owner {
		panic(fmt.Sprintf("LEDGER_OWNER_MISMATCH: ledger %s got fill for %s", l.Owner, f.Owner))
	}
	if f.Qty <= 0 {
		panic(fmt.Sprintf("LEDGER_NON_POSITIVE_QTY: %s qty=%d", f.OrderID, f.Qty))
	}

	notional := decimal.NewFromFloat(f.Price).Mul(decimal.NewFromInt(f.Qty))
	if f.Side == SideBuy {
		l.inventory += f.Qty
		l.cash = l.cash.Sub(notional)
	} else {
		l.inventory -= f.Qty
		l.cash = l.cash.Add(notional)
	}
	if f.Market {
		l.aggressiveVolume += f.Qty
	}
	if abs := absInt64(l.inventory); abs > l.maxInventory {
		l.maxInventory = abs
	}
	l.fills = append(l.fills, f)
}

// Inventory returns the signed position.
func (l *Ledger) Inventory() int64 { return l.inventory }

// MaxInventory returns the largest |inventory| seen so far.
func (l *Ledger) MaxInventory() int64 { return l.maxInventory }

// AggressiveVolume returns the cumulative quantity filled by market orders.
func (l *Ledger) AggressiveVolume() int64 { return l.aggressiveVolume }

// CashPnL returns realized cash flow since the start of the run.
func (l *Ledger) CashPnL() decimal.Decimal { return l.cash }

// MarkedPnL returns cash PnL plus inventory valued at mark.
func (l *Ledger) MarkedPnL(mark float64) decimal.Decimal {
	return l.cash.Add(decimal.NewFromFloat(mark).Mul(decimal.NewFromInt(l.inventory)))
}

// Equity returns InitialBalance + cash PnL + inventory * mark.
func (l *Ledger) Equity(mark float64) decimal.Decimal {
	return InitialBalance.Add(l.MarkedPnL(mark))
}

// RecordEquity appends the equity at mark to the curve and returns it.
func (l *Ledger) RecordEquity(step int, mark float64) EquityPoint {
	p := EquityPoint{Step: step, Equity: l.Equity(mark).InexactFloat64(), Mark: mark}
	l.equity = append(l.equity, p)
	return p
}

// Fills returns the fill history. Callers must not modify it.
func (l *Ledger) Fills() []Fill { return l.fills }

// EquityCurve returns the equity samples. Callers must not modify it.
func (l *Ledger) EquityCurve() []EquityPoint { return l.equity }

// MarkBlowup sets the blowup flag. Only the first reason is kept; it returns
// false if the flag was already set.
func (l *Ledger) MarkBlowup(reason string) bool {
	if l.blowup {
		return false
	}
	l.blowup = true
	l.blowupReason = reason
	return true
}

// Blowup returns the flag and its reason.
func (l *Ledger) Blowup() (bool, string) { return l.blowup, l.blowupReason }

// LedgerSummary is a copy of the ledger totals (for state dump and storage).
type LedgerSummary struct {
	Owner            string  `json:"owner"`
	Inventory        int64   `json:"inventory"`
	MaxInventory     int64   `json:"max_inventory"`
	AggressiveVolume int64   `json:"aggressive_volume"`
	CashPnL          string  `json:"cash_pnl"`
	Fills            int     `json:"fills"`
	LastEquity       float64 `json:"last_equity"`
	Blowup           bool    `json:"blowup"`
	BlowupReason     string  `json:"blowup_reason,omitempty"`
}

// Summary returns the current totals.
func (l *Ledger) Summary() LedgerSummary {
	s := LedgerSummary{
		Owner:            l.Owner,
		Inventory:        l.inventory,
		MaxInventory:     l.maxInventory,
		AggressiveVolume: l.aggressiveVolume,
		CashPnL:          l.cash.StringFixed(2),
		Fills:            len(l.fills),
		Blowup:           l.blowup,
		BlowupReason:     l.blowupReason,
	}
	if n := len(l.equity); n > 0 {
		s.LastEquity = l.equity[n-1].Equity
	} else {
		s.LastEquity = InitialBalance.InexactFloat64()
	}
	return s
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
