package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BlowupKind identifies what a BlowupRule watches.
type BlowupKind string

const (
	BlowupInventory BlowupKind = "INVENTORY"
	BlowupLoss      BlowupKind = "LOSS"
)

// Defaults used when the app config leaves the limits unset.
const (
	DefaultInventoryLimit int64 = 5000
	DefaultLossLimit      int64 = 1000
)

// BlowupRule is one terminal condition on the participant ledger.
type BlowupRule struct {
	Kind   BlowupKind      `json:"kind"`
	Limit  decimal.Decimal `json:"limit"`
	active bool
}

// NewInventoryRule triggers when |inventory| >= limit.
func NewInventoryRule(limit int64) *BlowupRule {
	return &BlowupRule{Kind: BlowupInventory, Limit: decimal.NewFromInt(limit), active: true}
}

// NewLossRule triggers when marked PnL drops below -limit.
func NewLossRule(limit int64) *BlowupRule {
	return &BlowupRule{Kind: BlowupLoss, Limit: decimal.NewFromInt(limit), active: true}
}

// IsActive returns whether the rule is evaluated.
func (r *BlowupRule) IsActive() bool {
	return r.active
}

// SetActive enables or disables the rule.
func (r *BlowupRule) SetActive(active bool) {
	r.active = active
}

// Check returns a human-readable reason and true when the rule is violated.
func (r *BlowupRule) Check(l *Ledger, mark float64) (string, bool) {
	if !r.active {
		return "", false
	}
	switch r.Kind {
	case BlowupInventory:
		if decimal.NewFromInt(absInt64(l.Inventory())).GreaterThanOrEqual(r.Limit) {
			return fmt.Sprintf("Inventory limit hit (max: %d)", l.MaxInventory()), true
		}
	case BlowupLoss:
		pnl := l.MarkedPnL(mark)
		if pnl.LessThan(r.Limit.Neg()) {
			return "Large loss: $" + pnl.StringFixed(2), true
		}
	}
	return "", false
}

// BlowupPolicy evaluates rules in order; the first violation wins.
type BlowupPolicy struct {
	Rules []*BlowupRule
}

// DefaultBlowupPolicy returns the inventory rule followed by the loss rule.
func DefaultBlowupPolicy() *BlowupPolicy {
	return &BlowupPolicy{Rules: []*BlowupRule{
		NewInventoryRule(DefaultInventoryLimit),
		NewLossRule(DefaultLossLimit),
	}}
}

// Evaluate marks the ledger on the first violated rule. It reports true only
// when this call set the flag.
func (p *BlowupPolicy) Evaluate(l *Ledger, mark float64) bool {
	if p == nil {
		return false
	}
	if blown, _ := l.Blowup(); blown {
		return false
	}
	for _, r := range p.Rules {
		if reason, hit := r.Check(l, mark); hit {
			return l.MarkBlowup(reason)
		}
	}
	return false
}
