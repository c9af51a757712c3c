package trader

import (
	"math"
	"testing"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ensembleScenario = `
market:
  initialFundamentalValue: 1000
traders:
  spiking: {count: 1, activationProbability: 0.01}
  institutional: {count: 1, initialInventory: 5000, startStep: 50, orderInterval: 1}
  marketMaker: {count: 2}
  noise: {count: 3}
  momentumShortTerm: {count: 2}
  momentumLongTerm: {count: 1}
  fundamental: {count: 2}
`

func TestBuildRoster_Order(t *testing.T) {
	sc, err := scenario.Parse([]byte(ensembleScenario))
	require.NoError(t, err)

	roster := BuildRoster(sc)
	var ids []string
	for _, tr := range roster {
		ids = append(ids, tr.ID())
	}
	assert.Equal(t, []string{
		"ft_0", "ft_1",
		"mt_lt_0",
		"mt_st_0", "mt_st_1",
		"nt_0", "nt_1", "nt_2",
		"mm_0", "mm_1",
		"inst_0",
		"spk_0",
	}, ids)

	assert.Equal(t, KindFundamental, roster[0].Kind())
	assert.Equal(t, KindMomentum, roster[2].Kind())
	assert.Equal(t, KindNoise, roster[5].Kind())
	assert.Equal(t, KindMarketMaker, roster[8].Kind())
	assert.Equal(t, KindInstitutional, roster[10].Kind())
	assert.Equal(t, KindSpiking, roster[11].Kind())

	for _, tr := range roster {
		if fa, ok := tr.(FundamentalAware); ok {
			fa.SetFundamentalValue(1200)
		}
	}
	assert.Equal(t, 1200.0, roster[0].(*FundamentalTrader).FundamentalValue())
}

func TestBuildRoster_Empty(t *testing.T) {
	sc, err := scenario.Parse([]byte("steps: 10\n"))
	require.NoError(t, err)
	assert.Empty(t, BuildRoster(sc))
}

// runEnsemble feeds a fixed snapshot sequence to a fresh roster and returns
// every request in emission order.
func runEnsemble(t *testing.T, seed int64) []domain.Request {
	t.Helper()
	sc, err := scenario.Parse([]byte(ensembleScenario))
	require.NoError(t, err)

	roster := BuildRoster(sc)
	rng := random.New(seed)

	var all []domain.Request
	for step := 0; step < 400; step++ {
		mid := 1000 + 5*math.Sin(float64(step)/20)
		snap := book(step, mid-0.5, mid+0.5, domain.PublicTrade{Qty: int64(step % 7 * 100), Price: mid})
		for _, tr := range roster {
			out := tr.Decide(snap, rng)
			all = append(all, out...)
			// fill half of every order immediately to exercise OnFill
			for _, r := range out {
				if o, ok := r.(domain.OrderIntent); ok && step%3 == 0 {
					tr.OnFill(domain.Fill{OrderID: o.ID, Owner: o.Owner, Side: o.Side, Qty: o.Qty / 2, Remaining: o.Qty - o.Qty/2, Step: step})
				}
			}
		}
	}
	return all
}

func TestRoster_Deterministic(t *testing.T) {
	a := runEnsemble(t, 99)
	b := runEnsemble(t, 99)
	require.NotEmpty(t, a)
	require.Equal(t, a, b)

	c := runEnsemble(t, 100)
	assert.NotEqual(t, a, c)
}

func TestRoster_UniqueOrderIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range runEnsemble(t, 5) {
		require.False(t, seen[r.RequestID()], "duplicate id %s", r.RequestID())
		seen[r.RequestID()] = true
	}
}
