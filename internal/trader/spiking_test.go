package trader

import (
	"testing"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpikingTrader_SpikeLength(t *testing.T) {
	for _, length := range []int{1, 4, 20} {
		p := scenario.SpikingParams{Count: 1, SpikeLength: length, ActivationProbability: 0.02, OrderVolume: 250}
		st := NewSpikingTrader("spk_0", p)
		rng := random.New(int64(length))

		var (
			spikes    int
			remaining int
			dir       domain.Side
		)
		for step := 0; step < 20000; step++ {
			draws := rng.Draws()
			orders := orderIntents(st.Decide(domain.MarketSnapshot{Step: step}, rng))
			require.LessOrEqual(t, len(orders), 1)

			if remaining > 0 {
				require.Len(t, orders, 1, "spike cut short at step %d", step)
				require.Equal(t, dir, orders[0].Side, "direction changed mid-spike at step %d", step)
				require.Equal(t, draws, rng.Draws(), "no draws during a spike")
				remaining--
				continue
			}
			if len(orders) == 1 {
				spikes++
				dir = orders[0].Side
				remaining = length - 1
				assert.Equal(t, int64(250), orders[0].Qty)
				assert.True(t, orders[0].Market)
				assert.Equal(t, remaining, st.Status())
				assert.Equal(t, dir, st.Direction())
			}
		}
		assert.Positive(t, spikes, "length %d", length)
	}
}

func TestSpikingTrader_Inactive(t *testing.T) {
	st := NewSpikingTrader("spk_0", scenario.SpikingParams{SpikeLength: 4, ActivationProbability: 0, OrderVolume: 100})
	rng := random.New(1)
	for step := 0; step < 1000; step++ {
		assert.Empty(t, st.Decide(domain.MarketSnapshot{Step: step}, rng))
	}
	assert.Equal(t, uint64(1000), rng.Draws())

	st.SetActivationProbability(1)
	out := st.Decide(domain.MarketSnapshot{Step: 1000}, rng)
	assert.Len(t, out, 1)
	assert.Equal(t, 3, st.Status())
}
