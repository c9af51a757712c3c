package random

import (
	"math"
	"math/rand"
)

// Source is the single seeded random stream of a simulation run.
// It is NOT safe for concurrent use: every draw must happen on the step
// goroutine, in roster order, for a run to be reproducible.
type Source struct {
	rnd   *rand.Rand
	seed  int64
	draws uint64
}

// New creates a Source seeded once from the run seed.
func New(seed int64) *Source {
	return &Source{
		rnd:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 { return s.seed }

// Draws returns how many values have been consumed so far.
func (s *Source) Draws() uint64 { return s.draws }

// Uniform returns a float64 in [0, 1).
func (s *Source) Uniform() float64 {
	s.draws++
	return s.rnd.Float64()
}

// Intn returns an int in [0, n). Panics if n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("random: Intn bound must be positive")
	}
	s.draws++
	return s.rnd.Intn(n)
}

// Bool returns a fair coin flip.
func (s *Source) Bool() bool {
	s.draws++
	return s.rnd.Int63()&1 == 1
}

// Gaussian returns a standard normal sample.
func (s *Source) Gaussian() float64 {
	s.draws++
	return s.rnd.NormFloat64()
}

// LogNormal returns exp(mu + sigma*N(0,1)).
func (s *Source) LogNormal(mu, sigma float64) float64 {
	return math.Exp(mu + sigma*s.Gaussian())
}
