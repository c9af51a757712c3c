package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/execution"
	"exchange_sim/internal/scenario"
	"exchange_sim/internal/strategy"
	"exchange_sim/internal/trader"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// scriptedMatcher quotes a fixed book and fills every order of fillOwner in
// full at its limit price, publishing from another goroutine.
type scriptedMatcher struct {
	bid, ask      float64
	fillOwner     string
	rejectCancels bool
	panicAt       int

	submitted [][]domain.Request
}

func (m *scriptedMatcher) Snapshot(step int) domain.MarketSnapshot {
	if step == m.panicAt {
		panic("snapshot failure")
	}
	m.submitted = append(m.submitted, nil)
	return domain.MarketSnapshot{Step: step, BestBid: m.bid, BestAsk: m.ask}
}

func (m *scriptedMatcher) Submit(_ context.Context, req domain.Request, sink domain.FillSink) error {
	last := len(m.submitted) - 1
	m.submitted[last] = append(m.submitted[last], req)

	switch r := req.(type) {
	case domain.CancelIntent:
		if m.rejectCancels {
			return domain.NewRejectError("cancel", r.Target, execution.ErrOrderNotFound)
		}
	case domain.OrderIntent:
		if r.Owner != m.fillOwner {
			return nil
		}
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Publish(domain.Fill{OrderID: r.ID, Owner: r.Owner, Side: r.Side, Qty: r.Qty, Price: r.Price, Market: r.Market})
		}()
		wg.Wait()
	}
	return nil
}

type buyEveryStep struct{}

func (buyEveryStep) Name() string { return "buy_every_step" }
func (buyEveryStep) OnMarketUpdate(strategy.View) []strategy.Action {
	return []strategy.Action{{Type: strategy.ActionBuy, Price: 100, Qty: 100}}
}

func mustParse(t testing.TB, doc string) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return sc
}

const marketScenario = `
name: small_market
seed: 11
steps: 600
market:
  initialFundamentalValue: 4500
  volatility: 0.02
  fundamentalUpdateInterval: 50
traders:
  fundamental: {count: 4}
  momentumLongTerm: {count: 2}
  momentumShortTerm: {count: 3}
  noise: {count: 6}
  marketMaker: {count: 2}
  institutional: {count: 1, initialInventory: 20000, startStep: 100, orderInterval: 5}
  spiking: {count: 1, activationProbability: 0.01}
events:
  - step: 200
    type: fundamental_shock
    value: -50
  - step: 300
    type: mm_delta
    value: 0.2
`

func runMarket(t testing.TB, seed int64) *Result {
	t.Helper()
	sc := mustParse(t, marketScenario)
	sc.Seed = seed

	sim := New(sc, execution.NewPaperExchange(), Options{
		Participant: strategy.NewParticipant("student", strategy.NewPassiveMarketMaker()),
		Blowup:      domain.DefaultBlowupPolicy(),
		Logger:      quiet,
	})
	res, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return res
}

func TestSimulation_Deterministic(t *testing.T) {
	a := runMarket(t, 11)
	b := runMarket(t, 11)

	if a.Steps != 600 || a.Stats.Steps != 600 {
		t.Fatalf("Expected 600 steps, got %d/%d", a.Steps, a.Stats.Steps)
	}
	if a.Stats.Fills == 0 {
		t.Fatal("Expected the market to trade")
	}
	if !reflect.DeepEqual(a.Stats, b.Stats) {
		t.Errorf("Stats differ: %+v vs %+v", a.Stats, b.Stats)
	}
	if !reflect.DeepEqual(a.Summary, b.Summary) {
		t.Errorf("Summary differs: %+v vs %+v", a.Summary, b.Summary)
	}
	if !reflect.DeepEqual(a.Equity, b.Equity) || !reflect.DeepEqual(a.Fills, b.Fills) {
		t.Error("Equity curve or fills differ between identical runs")
	}
	if a.FinalFundamental != b.FinalFundamental {
		t.Errorf("Fundamental differs: %v vs %v", a.FinalFundamental, b.FinalFundamental)
	}

	c := runMarket(t, 12)
	if reflect.DeepEqual(a.Stats, c.Stats) && reflect.DeepEqual(a.Equity, c.Equity) {
		t.Error("Different seeds produced identical runs")
	}
}

func TestSimulation_LedgerAbsorbsParticipantFills(t *testing.T) {
	sc := mustParse(t, "steps: 10\n")
	m := &scriptedMatcher{bid: 99.5, ask: 100.5, fillOwner: "student", panicAt: -1}

	sim := New(sc, m, Options{
		Participant:  strategy.NewParticipant("student", buyEveryStep{}),
		Blowup:       &domain.BlowupPolicy{Rules: []*domain.BlowupRule{domain.NewInventoryRule(250)}},
		HaltOnBlowup: true,
		Logger:       quiet,
	})
	res, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Steps != 3 || !res.Halted {
		t.Fatalf("Expected halt after 3 steps, got steps=%d halted=%v", res.Steps, res.Halted)
	}
	s := res.Summary
	if s.Inventory != 300 || s.MaxInventory != 300 || s.CashPnL != "-30000.00" {
		t.Errorf("Unexpected ledger %+v", s)
	}
	if !s.Blowup || s.BlowupReason != "Inventory limit hit (max: 300)" {
		t.Errorf("Unexpected blowup state %v %q", s.Blowup, s.BlowupReason)
	}
	if len(res.Equity) != 3 || len(res.Fills) != 3 {
		t.Fatalf("Expected 3 equity points and fills, got %d/%d", len(res.Equity), len(res.Fills))
	}
	for i, p := range res.Equity {
		if p.Step != i || p.Mark != 100 || p.Equity != 100000 {
			t.Errorf("equity[%d] = %+v", i, p)
		}
	}
	if res.Participant != "student" || res.Strategy != "buy_every_step" {
		t.Errorf("Unexpected participant %q/%q", res.Participant, res.Strategy)
	}
}

func TestSimulation_RejectionsAreNotFatal(t *testing.T) {
	sc := mustParse(t, `
steps: 50
traders:
  noise: {count: 3, cancelRate: 1}
`)
	m := &scriptedMatcher{bid: 99.5, ask: 100.5, rejectCancels: true, panicAt: -1}
	sim := New(sc, m, Options{Logger: quiet})

	res, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Steps != 50 {
		t.Errorf("Expected 50 steps, got %d", res.Steps)
	}
	if res.Stats.Rejections == 0 {
		t.Error("Expected cancels to be rejected and counted")
	}
	if res.Participant != "" || len(res.Equity) != 0 {
		t.Error("No participant means no ledger output")
	}
}

func TestSimulation_Events(t *testing.T) {
	sc := mustParse(t, `
steps: 10
market:
  initialFundamentalValue: 1000
traders:
  spiking: {count: 1, activationProbability: 0, spikeLength: 5}
  marketMaker: {count: 1, inventoryLimit: 2000, safeInventory: 500}
events:
  - step: 3
    type: spike_activation
    value: 1
  - step: 4
    type: spike_activation
    value: 0
  - step: 5
    type: fundamental_shock
    value: -400
  - step: 6
    type: mm_inventory_limit
    value: 100
`)
	m := &scriptedMatcher{panicAt: -1}
	sim := New(sc, m, Options{Logger: quiet})

	spiker := sim.Roster()[1].(*trader.SpikingTrader)
	for step := 0; step < 10; step++ {
		if _, err := sim.Step(context.Background()); err != nil {
			t.Fatalf("Step %d failed: %v", step, err)
		}
		switch step {
		case 2:
			if spiker.Status() != 0 {
				t.Errorf("Spiker active before the event")
			}
		case 3:
			if spiker.Status() != 4 {
				t.Errorf("Expected spike to start at step 3, status=%d", spiker.Status())
			}
		case 4:
			if sim.Fundamental() != 1000 {
				t.Errorf("Shock applied early: %v", sim.Fundamental())
			}
		case 5:
			if sim.Fundamental() != 600 {
				t.Errorf("Expected fundamental 600 after shock, got %v", sim.Fundamental())
			}
		}
	}

	var spikes int
	for _, reqs := range m.submitted {
		for _, r := range reqs {
			if r.RequestOwner() == "spk_0" {
				spikes++
			}
		}
	}
	if spikes != 5 {
		t.Errorf("Expected a spike of 5 orders, got %d", spikes)
	}
	if st := sim.Stats(); st.Events != 4 {
		t.Errorf("Expected 4 events applied, got %d", st.Events)
	}
}

func TestSimulation_ContextCancelled(t *testing.T) {
	sc := mustParse(t, "steps: 100\n")
	sim := New(sc, &scriptedMatcher{panicAt: -1}, Options{Logger: quiet})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := sim.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if res == nil || res.Steps != 0 {
		t.Errorf("Expected an empty partial result, got %+v", res)
	}
}

func TestSimulation_PanicDumpsState(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "dump.json")
	sc := mustParse(t, `
steps: 10
traders:
  noise: {count: 2}
`)
	sim := New(sc, &scriptedMatcher{bid: 99.5, ask: 100.5, panicAt: 2}, Options{Logger: quiet, DumpPath: dump})

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Run should re-panic after dumping state")
			}
		}()
		_, _ = sim.Run(context.Background())
	}()

	b, err := os.ReadFile(dump)
	if err != nil {
		t.Fatalf("Dump not written: %v", err)
	}
	var state struct {
		Step    int            `json:"step"`
		Traders []trader.State `json:"traders"`
	}
	if err := json.Unmarshal(b, &state); err != nil {
		t.Fatalf("Dump is not JSON: %v", err)
	}
	if state.Step != 2 || len(state.Traders) != 2 {
		t.Errorf("Unexpected dump %+v", state)
	}
}
