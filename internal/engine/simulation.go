package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/random"
	"exchange_sim/internal/scenario"
	"exchange_sim/internal/strategy"
	"exchange_sim/internal/trader"
)

// DefaultDumpPath is where the post-mortem state goes when Options leaves it
// empty.
const DefaultDumpPath = "panic_dump.json"

// Recorder receives per-step counters. infra.Metrics implements it.
type Recorder interface {
	RecordStep(latencyNs int64)
	RecordRequests(n int)
	RecordFills(n int)
	RecordRejection()
	RecordBlowup()
}

// Options configures a Simulation. The zero value runs the roster alone.
type Options struct {
	Participant   *strategy.Participant
	Blowup        *domain.BlowupPolicy // nil disables blowup detection
	HaltOnBlowup  bool
	ProgressEvery int // steps between progress logs, 0 disables
	Recorder      Recorder
	Logger        *slog.Logger
	DumpPath      string
}

// Stats counts what happened during a run.
type Stats struct {
	Steps              int    `json:"steps"`
	Requests           uint64 `json:"requests"`
	Fills              uint64 `json:"fills"`
	Rejections         uint64 `json:"rejections"`
	Events             int    `json:"events"`
	FundamentalUpdates int    `json:"fundamental_updates"`
}

// StepReport summarizes one step.
type StepReport struct {
	Step     int
	Requests int
	Fills    int
	Rejected int
	Mark     float64
	Equity   float64
	Blowup   bool
}

// Result is the outcome of a run.
type Result struct {
	Scenario         string               `json:"scenario"`
	Seed             int64                `json:"seed"`
	Steps            int                  `json:"steps"`
	Participant      string               `json:"participant,omitempty"`
	Strategy         string               `json:"strategy,omitempty"`
	Summary          domain.LedgerSummary `json:"summary"`
	Equity           []domain.EquityPoint `json:"equity,omitempty"`
	Fills            []domain.Fill        `json:"fills,omitempty"`
	FinalFundamental float64              `json:"final_fundamental"`
	Halted           bool                 `json:"halted"`
	Stats            Stats                `json:"stats"`
	Duration         time.Duration        `json:"duration"`
}

// Simulation is the single-goroutine step loop. Each step runs, in order:
// scheduled events, the fundamental process, the book snapshot, every trader
// in roster order, the participant, order submission, fill routing, equity
// and blowup evaluation.
type Simulation struct {
	sc       *scenario.Scenario
	matcher  domain.Matcher
	rng      *random.Source
	fund     *FundamentalProcess
	schedule *scenario.Schedule
	roster   []trader.Trader
	byID     map[string]trader.Trader

	participant *strategy.Participant
	ledger      *domain.Ledger
	blowup      *domain.BlowupPolicy

	fills  *FillBuffer
	opts   Options
	logger *slog.Logger

	mms      []*trader.MarketMaker
	stressed []bool

	step     int
	halted   bool
	requests []domain.Request
	stats    Stats
}

// New wires a run of sc against matcher. The roster is built here, so two
// Simulations of the same scenario never share trader state.
func New(sc *scenario.Scenario, matcher domain.Matcher, opts Options) *Simulation {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulation{
		sc:          sc,
		matcher:     matcher,
		rng:         random.New(sc.Seed),
		fund:        NewFundamentalProcess(sc.Market, sc.Seed),
		schedule:    scenario.NewSchedule(sc.Events),
		roster:      trader.BuildRoster(sc),
		participant: opts.Participant,
		blowup:      opts.Blowup,
		fills:       &FillBuffer{},
		opts:        opts,
		logger:      logger.With(slog.String("component", "simulation"), slog.String("scenario", sc.Name)),
	}
	s.byID = make(map[string]trader.Trader, len(s.roster))
	for _, tr := range s.roster {
		s.byID[tr.ID()] = tr
		if mm, ok := tr.(*trader.MarketMaker); ok {
			s.mms = append(s.mms, mm)
		}
	}
	s.stressed = make([]bool, len(s.mms))
	if s.participant != nil {
		s.ledger = domain.NewLedger(s.participant.ID())
	}
	return s
}

// Run executes the remaining steps. On cancellation it returns the partial
// result together with the context error.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r), slog.Int("step", s.step))
			s.DumpState(s.dumpPath())
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	start := time.Now()
	s.logger.Info("Simulation started",
		slog.Int64("seed", s.sc.Seed),
		slog.Int("steps", s.sc.Steps),
		slog.Int("traders", len(s.roster)),
		slog.Bool("participant", s.participant != nil),
	)

	for s.step < s.sc.Steps {
		if err := ctx.Err(); err != nil {
			s.logger.Info("Simulation stopping...", slog.Int("step", s.step))
			return s.Result(time.Since(start)), err
		}

		t0 := time.Now()
		rep, err := s.Step(ctx)
		if err != nil {
			return s.Result(time.Since(start)), fmt.Errorf("step %d: %w", rep.Step, err)
		}
		if s.opts.Recorder != nil {
			s.opts.Recorder.RecordStep(time.Since(t0).Nanoseconds())
		}

		if n := s.opts.ProgressEvery; n > 0 && s.step%n == 0 {
			s.logger.Info("Simulation progress",
				slog.Int("step", s.step),
				slog.Float64("fundamental", s.fund.Value()),
				slog.Float64("mark", rep.Mark),
				slog.Uint64("fills", s.stats.Fills),
			)
		}
		if rep.Blowup && s.opts.HaltOnBlowup {
			s.halted = true
			s.logger.Warn("Halting on blowup", slog.Int("step", rep.Step))
			break
		}
	}

	res := s.Result(time.Since(start))
	s.logger.Info("Simulation finished",
		slog.Int("steps", res.Steps),
		slog.Float64("final_equity", res.Summary.LastEquity),
		slog.Bool("blowup", res.Summary.Blowup),
		slog.Duration("elapsed", res.Duration),
	)
	return res, nil
}

// Step runs exactly one step. Matcher rejections are counted, not returned;
// any other Submit error aborts the step.
func (s *Simulation) Step(ctx context.Context) (StepReport, error) {
	rep := StepReport{Step: s.step}

	// 1. Scheduled events
	for _, ev := range s.schedule.Due(s.step) {
		s.applyEvent(ev)
	}

	// 2. Fundamental process
	if s.fund.Advance(s.step) {
		s.stats.FundamentalUpdates++
		s.pushFundamental()
	}

	// 3. Snapshot
	snap := s.matcher.Snapshot(s.step)

	// 4. Traders in roster order, then the participant
	reqs := s.requests[:0]
	for _, tr := range s.roster {
		reqs = append(reqs, tr.Decide(snap, s.rng)...)
	}
	if s.participant != nil {
		reqs = append(reqs, s.participant.Decide(snap, s.fund.Value(), s.ledger.Inventory())...)
	}
	s.requests = reqs
	rep.Requests = len(reqs)

	// 5. Submission in collection order
	for _, r := range reqs {
		err := s.matcher.Submit(ctx, r, s.fills)
		if err == nil {
			continue
		}
		if !domain.IsRejection(err) {
			return rep, err
		}
		rep.Rejected++
		if s.opts.Recorder != nil {
			s.opts.Recorder.RecordRejection()
		}
		s.logger.Debug("Request rejected", slog.String("owner", r.RequestOwner()), slog.Any("error", err))
	}

	// 6. Fill routing
	fills := s.fills.Drain()
	for _, f := range fills {
		s.routeFill(f)
	}
	rep.Fills = len(fills)
	s.observeStress()

	// 7. Equity and blowup
	rep.Mark = snap.MidPrice(s.fund.Value())
	if s.ledger != nil {
		rep.Equity = s.ledger.RecordEquity(s.step, rep.Mark).Equity
		if s.blowup.Evaluate(s.ledger, rep.Mark) {
			_, reason := s.ledger.Blowup()
			rep.Blowup = true
			if s.opts.Recorder != nil {
				s.opts.Recorder.RecordBlowup()
			}
			s.logger.Warn("Participant blowup", slog.Int("step", s.step), slog.String("reason", reason))
		}
	}

	// 8. Counters
	s.stats.Steps++
	s.stats.Requests += uint64(rep.Requests)
	s.stats.Fills += uint64(rep.Fills)
	s.stats.Rejections += uint64(rep.Rejected)
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordRequests(rep.Requests)
		s.opts.Recorder.RecordFills(rep.Fills)
	}
	s.step++
	return rep, nil
}

func (s *Simulation) routeFill(f domain.Fill) {
	if s.participant != nil && f.Owner == s.participant.ID() {
		s.ledger.Apply(f)
		s.participant.OnFill(f)
		return
	}
	tr, ok := s.byID[f.Owner]
	if !ok {
		s.logger.Warn("Fill for unknown owner", slog.String("owner", f.Owner), slog.String("order_id", f.OrderID))
		return
	}
	tr.OnFill(f)
}

func (s *Simulation) applyEvent(ev scenario.Event) {
	s.stats.Events++
	s.logger.Info("Scenario event", slog.Int("step", s.step), slog.String("kind", string(ev.Kind)), slog.Float64("value", ev.Value))

	switch ev.Kind {
	case scenario.EventFundamentalShock:
		s.fund.Shock(ev.Value)
		s.pushFundamental()
	case scenario.EventVolatility:
		s.fund.SetVolatility(ev.Value)
	case scenario.EventMMInventoryLimit:
		for _, mm := range s.mms {
			if err := mm.SetInventoryLimit(int64(ev.Value)); err != nil {
				s.logger.Warn("Event skipped", slog.String("trader", mm.ID()), slog.Any("error", err))
			}
		}
	case scenario.EventMMDelta:
		for _, mm := range s.mms {
			mm.SetDelta(ev.Value)
		}
	case scenario.EventSpikeActivation:
		for _, tr := range s.roster {
			if sp, ok := tr.(*trader.SpikingTrader); ok {
				sp.SetActivationProbability(ev.Value)
			}
		}
	default:
		s.logger.Warn("Unknown event type", slog.String("kind", string(ev.Kind)))
	}
}

func (s *Simulation) pushFundamental() {
	v := s.fund.Value()
	for _, tr := range s.roster {
		if fa, ok := tr.(trader.FundamentalAware); ok {
			fa.SetFundamentalValue(v)
		}
	}
}

func (s *Simulation) observeStress() {
	for i, mm := range s.mms {
		if st := mm.Stressed(); st != s.stressed[i] {
			s.stressed[i] = st
			s.logger.Debug("Market maker stress changed",
				slog.String("trader", mm.ID()),
				slog.Bool("stressed", st),
				slog.Int64("position", mm.Position()),
				slog.Int("step", s.step),
			)
		}
	}
}

// CurrentStep returns the index of the next step to run.
func (s *Simulation) CurrentStep() int { return s.step }

// Fundamental returns the current fundamental value.
func (s *Simulation) Fundamental() float64 { return s.fund.Value() }

// Roster returns the traders in evaluation order.
func (s *Simulation) Roster() []trader.Trader { return s.roster }

// Ledger returns the participant ledger, or nil without a participant.
func (s *Simulation) Ledger() *domain.Ledger { return s.ledger }

// Stats returns a copy of the run counters.
func (s *Simulation) Stats() Stats { return s.stats }

// Result collects the current outcome. It may be called mid-run.
func (s *Simulation) Result(elapsed time.Duration) *Result {
	res := &Result{
		Scenario:         s.sc.Name,
		Seed:             s.sc.Seed,
		Steps:            s.step,
		FinalFundamental: s.fund.Value(),
		Halted:           s.halted,
		Stats:            s.stats,
		Duration:         elapsed,
	}
	if s.ledger != nil {
		res.Participant = s.participant.ID()
		res.Strategy = s.participant.Strategy()
		res.Summary = s.ledger.Summary()
		res.Equity = s.ledger.EquityCurve()
		res.Fills = s.ledger.Fills()
	}
	return res
}

func (s *Simulation) dumpPath() string {
	if s.opts.DumpPath != "" {
		return s.opts.DumpPath
	}
	return DefaultDumpPath
}

// DumpState writes the entire internal state to a file (for post-mortem).
func (s *Simulation) DumpState(filename string) {
	s.logger.Info("Dumping internal state...", slog.String("file", filename))

	traders := make([]trader.State, 0, len(s.roster))
	for _, tr := range s.roster {
		traders = append(traders, tr.State())
	}
	data := struct {
		Scenario    string                `json:"scenario"`
		Seed        int64                 `json:"seed"`
		Step        int                   `json:"step"`
		Draws       uint64                `json:"rng_draws"`
		Fundamental float64               `json:"fundamental"`
		Volatility  float64               `json:"volatility"`
		Traders     []trader.State        `json:"traders"`
		Ledger      *domain.LedgerSummary `json:"ledger,omitempty"`
		Stats       Stats                 `json:"stats"`
	}{
		Scenario:    s.sc.Name,
		Seed:        s.sc.Seed,
		Step:        s.step,
		Draws:       s.rng.Draws(),
		Fundamental: s.fund.Value(),
		Volatility:  s.fund.Volatility(),
		Traders:     traders,
		Stats:       s.stats,
	}
	if s.ledger != nil {
		sum := s.ledger.Summary()
		data.Ledger = &sum
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal state", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(filename, b, 0644); err != nil {
		s.logger.Error("Failed to write state dump", slog.Any("error", err))
	}
}
