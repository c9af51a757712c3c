package scenario

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"exchange_sim/internal/domain"
)

// EventKind names a scheduled parameter change.
type EventKind string

const (
	// EventFundamentalShock adds Value to the fundamental value.
	EventFundamentalShock EventKind = "fundamental_shock"
	// EventVolatility sets the fundamental process volatility.
	EventVolatility EventKind = "volatility"
	// EventMMInventoryLimit sets every market maker's inventory limit.
	EventMMInventoryLimit EventKind = "mm_inventory_limit"
	// EventMMDelta sets every market maker's cancel-all probability.
	EventMMDelta EventKind = "mm_delta"
	// EventSpikeActivation sets every spiking trader's activation probability.
	EventSpikeActivation EventKind = "spike_activation"
)

var errUnknownEvent = errors.New("unknown event type")

// Event is applied at the start of Step, before the snapshot is taken.
type Event struct {
	Step  int
	Kind  EventKind
	Value float64
}

func (e EventRaw) resolve() (Event, error) {
	ev := Event{Kind: EventKind(e.Type), Value: e.Value}
	switch {
	case e.Step != nil:
		ev.Step = *e.Step
	case e.Time != "":
		ev.Step = ParseStartTime(e.Time)
	}
	if ev.Step < 0 {
		return Event{}, fmt.Errorf("%w: step %d before market open", domain.ErrInvalidScenario, ev.Step)
	}

	switch ev.Kind {
	case EventFundamentalShock:
	case EventVolatility:
		if ev.Value < 0 {
			return Event{}, fmt.Errorf("%w: negative volatility", domain.ErrInvalidScenario)
		}
	case EventMMInventoryLimit:
		if ev.Value <= 0 {
			return Event{}, fmt.Errorf("%w: inventory limit must be positive", domain.ErrInvalidScenario)
		}
	case EventMMDelta, EventSpikeActivation:
		if !isProbability(ev.Value) {
			return Event{}, fmt.Errorf("%w: probability must be in [0,1]", domain.ErrInvalidScenario)
		}
	default:
		return Event{}, fmt.Errorf("%w: %q", errUnknownEvent, e.Type)
	}
	return ev, nil
}

// Schedule hands out events in step order. Events sharing a step keep their
// file order.
type Schedule struct {
	events []Event
	next   int
}

// NewSchedule copies events and orders them by step.
func NewSchedule(events []Event) *Schedule {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int { return cmp.Compare(a.Step, b.Step) })
	return &Schedule{events: sorted}
}

// Due returns the events scheduled at or before step that were not handed out
// yet.
func (s *Schedule) Due(step int) []Event {
	start := s.next
	for s.next < len(s.events) && s.events[s.next].Step <= step {
		s.next++
	}
	return s.events[start:s.next]
}

// Pending returns how many events are left.
func (s *Schedule) Pending() int {
	return len(s.events) - s.next
}
