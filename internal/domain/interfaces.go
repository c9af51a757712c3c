package domain

import (
	"context"
)

// Matcher is the order-matching collaborator of the simulation.
// Snapshot returns the book top and the public trades printed since the
// previous Snapshot call. Submit may publish fills to sink synchronously or
// from another goroutine; a returned error is a rejection of that request only.
type Matcher interface {
	Snapshot(step int) MarketSnapshot
	Submit(ctx context.Context, req Request, sink FillSink) error
}

// RunRepository persists finished runs
type RunRepository interface {
	SaveRun(ctx context.Context, run *RunRecord, equity []EquityRecord, fills []FillRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, scenario string) ([]RunRecord, error)
	EquityCurve(ctx context.Context, runID string) ([]EquityRecord, error)
	DeleteRun(ctx context.Context, id string) error
}
