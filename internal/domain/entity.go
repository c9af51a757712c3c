package domain

import (
	"time"
)

// RunRecord is the persisted summary of one simulation run
type RunRecord struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Scenario         string    `gorm:"index" json:"scenario"`
	Participant      string    `json:"participant"`
	Strategy         string    `json:"strategy"`
	Seed             int64     `gorm:"index" json:"seed"`
	Steps            int       `json:"steps"`
	FinalEquity      float64   `json:"final_equity"`
	CashPnL          string    `json:"cash_pnl"` // decimal string
	Inventory        int64     `json:"inventory"`
	MaxInventory     int64     `json:"max_inventory"`
	AggressiveVolume int64     `json:"aggressive_volume"`
	FillCount        int       `json:"fill_count"`
	Blowup           bool      `gorm:"index" json:"blowup"`
	BlowupReason     string    `json:"blowup_reason"`
	DurationMillis   int64     `json:"duration_ms"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// EquityRecord is one equity curve sample of a run
type EquityRecord struct {
	ID     uint    `gorm:"primaryKey" json:"-"`
	RunID  string  `gorm:"index:idx_equity_run_step;size:36" json:"run_id"`
	Step   int     `gorm:"index:idx_equity_run_step" json:"step"`
	Equity float64 `json:"equity"`
	Mark   float64 `json:"mark"`
}

// FillRecord is one participant fill of a run
type FillRecord struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	RunID     string  `gorm:"index;size:36" json:"run_id"`
	Step      int     `json:"step"`
	OrderID   string  `json:"order_id"`
	Side      Side    `json:"side"`
	Qty       int64   `json:"qty"`
	Remaining int64   `json:"remaining"`
	Price     float64 `json:"price"`
	Market    bool    `json:"market"`
}
