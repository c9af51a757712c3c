package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"exchange_sim/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const institutionalDump = `
name: institutional_dump
seed: 7
steps: 30000
market:
  initialFundamentalValue: 1000
traders:
  marketMaker:
    count: 2
    maxEdge: 1.5
  institutional:
    count: 1
    initialInventory: 220000
    percentageOfVolume: 9
    orderInterval: 12
    startTime: "08:30:00"
  noise:
    count: 10
    sigma: 3
events:
  - time: "08:45"
    type: mm_delta
    value: 0.9
  - step: 100
    type: fundamental_shock
    value: -50
`

func TestParse_ResolvesAndTransforms(t *testing.T) {
	sc, err := Parse([]byte(institutionalDump))
	require.NoError(t, err)

	assert.Equal(t, "institutional_dump", sc.Name)
	assert.Equal(t, int64(7), sc.Seed)
	assert.Equal(t, 30000, sc.Steps)
	assert.Equal(t, 1000.0, sc.Market.FundamentalValue)
	assert.Equal(t, DefaultVolatility, sc.Market.Volatility)

	assert.Equal(t, InstitutionalParams{
		Count:              1,
		InitialInventory:   220000,
		PercentageOfVolume: 0.09,
		OrderIntervalSteps: 120,
		StartStep:          18000,
	}, sc.Institutional)

	assert.Equal(t, 2, sc.MarketMaker.Count)
	assert.Equal(t, 1.5, sc.MarketMaker.SpreadEdge)
	assert.Equal(t, int64(5000), sc.MarketMaker.InventoryLimit)
	assert.Equal(t, int64(2000), sc.MarketMaker.SafeInventory)
	assert.Equal(t, 600, sc.MarketMaker.RestPeriod)

	assert.Equal(t, 3.0, sc.Noise.Eta)
	assert.Equal(t, 0.25, sc.Noise.Kappa)

	// absent categories yield zero instances
	assert.Zero(t, sc.Fundamental.Count)
	assert.Zero(t, sc.Spiking.Count)
	assert.Equal(t, 13, sc.TraderCount())

	require.Len(t, sc.Events, 2)
	assert.Equal(t, Event{Step: 27000, Kind: EventMMDelta, Value: 0.9}, sc.Events[0])
	assert.Equal(t, Event{Step: 100, Kind: EventFundamentalShock, Value: -50}, sc.Events[1])
}

func TestParse_StartStepWinsOverStartTime(t *testing.T) {
	sc, err := Parse([]byte(`
traders:
  institutional:
    count: 1
    startStep: 500
    startTime: "09:00:00"
`))
	require.NoError(t, err)
	assert.Equal(t, 500, sc.Institutional.StartStep)
}

func TestParse_MalformedStartTimeFallsBackToZero(t *testing.T) {
	sc, err := Parse([]byte(`
traders:
  institutional:
    count: 1
    startTime: "noon"
`))
	require.NoError(t, err)
	assert.Equal(t, 0, sc.Institutional.StartStep)
}

func TestParse_MomentumAliases(t *testing.T) {
	sc, err := Parse([]byte(`
traders:
  momentumLongTerm:
    count: 3
    alpha: 0.05
    beta: 40
  momentumShortTerm:
    count: 2
    decayRate: 0.7
    alpha: 0.1
    chi: 60
    psi: 5
`))
	require.NoError(t, err)

	chi := 40.0
	assert.Equal(t, MomentumParams{Count: 3, Rho: 0.05, Chi: chi, Psi: chi * 0.3, CancelRate: 0.05}, sc.MomentumLongTerm)
	assert.Equal(t, MomentumParams{Count: 2, Rho: 0.7, Chi: 60, Psi: 5, CancelRate: 0.05}, sc.MomentumShortTerm)
}

func TestParse_Defaults(t *testing.T) {
	sc, err := Parse([]byte(`
traders:
  fundamental: {count: 30}
  spiking: {count: 1}
`))
	require.NoError(t, err)

	assert.Equal(t, DefaultSeed, sc.Seed)
	assert.Equal(t, DefaultSteps, sc.Steps)
	assert.Equal(t, DefaultFundamentalValue, sc.Market.FundamentalValue)
	assert.Equal(t, FundamentalParams{Count: 30, Kappa1: 0.5, Kappa2: 0.001, UpdateInterval: 1}, sc.Fundamental)
	assert.Equal(t, SpikingParams{Count: 1, SpikeLength: 4, ActivationProbability: 0.005, OrderVolume: 100}, sc.Spiking)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{
			name:  "safe inventory at limit",
			doc:   "traders:\n  marketMaker: {count: 1, inventoryLimit: 100, safeInventory: 100}\n",
			field: "marketMaker.safeInventory",
		},
		{
			name:  "gamma above one",
			doc:   "traders:\n  marketMaker: {count: 1, gamma: 1.5}\n",
			field: "marketMaker.gamma",
		},
		{
			name:  "zero fundamental interval",
			doc:   "traders:\n  fundamental: {count: 1, interval: 0}\n",
			field: "fundamental.interval",
		},
		{
			name:  "negative count",
			doc:   "traders:\n  noise: {count: -1}\n",
			field: "noise.count",
		},
		{
			name:  "zero steps",
			doc:   "steps: 0\n",
			field: "steps",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)

			var ce *domain.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.ErrorIs(t, err, domain.ErrInvalidScenario)
		})
	}
}

func TestParse_UnknownEvent(t *testing.T) {
	_, err := Parse([]byte("events:\n  - {step: 1, type: meteor}\n"))
	require.Error(t, err)

	var ce *domain.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "events[0]", ce.Field)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flash_crash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("traders:\n  spiking: {count: 2}\n"), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "flash_crash", sc.Name)
	assert.Equal(t, 2, sc.Spiking.Count)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.Is(err, domain.ErrConfigNotFound))
}

func TestLoad_ShippedScenarios(t *testing.T) {
	paths, err := filepath.Glob("../../configs/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		t.Run(filepath.Base(p), func(t *testing.T) {
			sc, err := Load(p)
			require.NoError(t, err)
			assert.Positive(t, sc.TraderCount())
		})
	}
}

func TestSchedule_Due(t *testing.T) {
	s := NewSchedule([]Event{
		{Step: 10, Kind: EventVolatility, Value: 0.05},
		{Step: 5, Kind: EventMMDelta, Value: 0.1},
		{Step: 10, Kind: EventFundamentalShock, Value: 3},
	})

	assert.Empty(t, s.Due(4))
	assert.Equal(t, []Event{{Step: 5, Kind: EventMMDelta, Value: 0.1}}, s.Due(5))
	assert.Empty(t, s.Due(9))

	due := s.Due(10)
	require.Len(t, due, 2)
	assert.Equal(t, EventVolatility, due[0].Kind)
	assert.Equal(t, EventFundamentalShock, due[1].Kind)
	assert.Zero(t, s.Pending())
}
