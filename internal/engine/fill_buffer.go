package engine

import (
	"sync"

	"exchange_sim/internal/domain"
)

// FillBuffer collects fills published by the matcher during one step.
// Publish may be called from any goroutine; Drain is called by the step loop.
type FillBuffer struct {
	mu    sync.Mutex
	fills []domain.Fill
	spare []domain.Fill
}

// Publish implements domain.FillSink.
func (b *FillBuffer) Publish(fills ...domain.Fill) {
	b.mu.Lock()
	b.fills = append(b.fills, fills...)
	b.mu.Unlock()
}

// Drain returns the buffered fills in publication order and empties the
// buffer. The returned slice is reused by the Drain after next.
func (b *FillBuffer) Drain() []domain.Fill {
	b.mu.Lock()
	out := b.fills
	b.fills = b.spare[:0]
	b.spare = out
	b.mu.Unlock()
	return out
}

// Len returns the number of buffered fills.
func (b *FillBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.fills)
}
