package trader

import (
	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"
)

// SpikingTrader fires a burst of spikeLength one-sided market orders,
// starting on the step it activates.
type SpikingTrader struct {
	Base

	spikeLength int
	activation  float64
	volume      int64

	status    int // orders left in the current spike
	direction domain.Side
}

func NewSpikingTrader(id string, p scenario.SpikingParams) *SpikingTrader {
	return &SpikingTrader{
		Base:        newBase(id),
		spikeLength: p.SpikeLength,
		activation:  p.ActivationProbability,
		volume:      p.OrderVolume,
	}
}

func (s *SpikingTrader) Kind() Kind { return KindSpiking }

func (s *SpikingTrader) Decide(_ domain.MarketSnapshot, rng *random.Source) []domain.Request {
	if s.status > 0 {
		s.status--
		return []domain.Request{s.market(s.direction, s.volume)}
	}
	if rng.Uniform() >= s.activation {
		return nil
	}

	s.direction = domain.SideBuy
	if rng.Uniform() < 0.5 {
		s.direction = domain.SideSell
	}
	s.status = s.spikeLength - 1
	return []domain.Request{s.market(s.direction, s.volume)}
}

// Status returns the number of orders left in the active spike.
func (s *SpikingTrader) Status() int { return s.status }

// Direction returns the side of the last activated spike.
func (s *SpikingTrader) Direction() domain.Side { return s.direction }

func (s *SpikingTrader) SetActivationProbability(p float64) { s.activation = p }

func (s *SpikingTrader) State() State { return s.state(s.Kind()) }
