package service

import (
	"context"
	"fmt"
	"log/slog"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/engine"
	"exchange_sim/internal/execution"
	"exchange_sim/internal/scenario"
	"exchange_sim/internal/strategy"

	"golang.org/x/sync/errgroup"
)

// RunMetrics is the recorder plus run lifecycle hooks (infra.Metrics).
type RunMetrics interface {
	engine.Recorder
	RunStarted()
	RunFinished()
}

// RunRequest describes one run. Zero Steps and nil Seed keep the scenario's
// values; an empty Strategy runs the market without a participant.
type RunRequest struct {
	Scenario      *scenario.Scenario
	Seed          *int64
	Steps         int
	ParticipantID string
	Strategy      string
	Blowup        *domain.BlowupPolicy
	HaltOnBlowup  bool
	ProgressEvery int
	DumpPath      string
}

// RunOutcome is a finished run and the id it was stored under (empty when
// the service has no repository).
type RunOutcome struct {
	RunID  string
	Result *engine.Result
}

// RunService builds and executes simulations and persists their results
type RunService struct {
	repo    domain.RunRepository
	metrics RunMetrics
	logger  *slog.Logger
}

// NewRunService creates a new RunService. repo and metrics may be nil.
func NewRunService(repo domain.RunRepository, metrics RunMetrics, logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{
		repo:    repo,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "run_service")),
	}
}

// Run executes one simulation on a fresh paper exchange. A cancelled run is
// returned with the context error and is not persisted.
func (s *RunService) Run(ctx context.Context, req RunRequest) (*RunOutcome, error) {
	if req.Scenario == nil {
		return nil, fmt.Errorf("%w: no scenario", domain.ErrInvalidScenario)
	}

	// Each run owns its scenario copy, RNG, book and roster.
	sc := *req.Scenario
	if req.Seed != nil {
		sc.Seed = *req.Seed
	}
	if req.Steps > 0 {
		sc.Steps = req.Steps
	}

	opts := engine.Options{
		Blowup:        req.Blowup,
		HaltOnBlowup:  req.HaltOnBlowup,
		ProgressEvery: req.ProgressEvery,
		Logger:        s.logger.With(slog.Int64("seed", sc.Seed)),
		DumpPath:      req.DumpPath,
	}
	if req.Strategy != "" {
		strat, err := strategy.New(req.Strategy)
		if err != nil {
			return nil, err
		}
		opts.Participant = strategy.NewParticipant(req.ParticipantID, strat)
	}
	if s.metrics != nil {
		opts.Recorder = s.metrics
		s.metrics.RunStarted()
		defer s.metrics.RunFinished()
	}

	sim := engine.New(&sc, execution.NewPaperExchange(), opts)
	res, err := sim.Run(ctx)
	if err != nil {
		return &RunOutcome{Result: res}, err
	}

	out := &RunOutcome{Result: res}
	if s.repo != nil {
		run, equity, fills := ToRecords(res)
		if err := s.repo.SaveRun(ctx, run, equity, fills); err != nil {
			return out, fmt.Errorf("save run: %w", err)
		}
		out.RunID = run.ID
		s.logger.Info("Run saved", slog.String("run_id", run.ID), slog.Int64("seed", sc.Seed))
	}
	return out, nil
}

// RunBatch runs req once per seed with at most parallelism runs in flight.
// Outcomes are returned in seed order. The first failure cancels the rest.
func (s *RunService) RunBatch(ctx context.Context, req RunRequest, seeds []int64, parallelism int) ([]*RunOutcome, error) {
	outcomes := make([]*RunOutcome, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallelism, 1))
	for i, seed := range seeds {
		r := req
		r.Seed = &seed
		g.Go(func() error {
			out, err := s.Run(gctx, r)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Seeds returns n consecutive seeds starting at base.
func Seeds(base int64, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = base + int64(i)
	}
	return seeds
}

// ToRecords converts a result into storage rows.
func ToRecords(res *engine.Result) (*domain.RunRecord, []domain.EquityRecord, []domain.FillRecord) {
	run := &domain.RunRecord{
		Scenario:         res.Scenario,
		Participant:      res.Participant,
		Strategy:         res.Strategy,
		Seed:             res.Seed,
		Steps:            res.Steps,
		FinalEquity:      res.Summary.LastEquity,
		CashPnL:          res.Summary.CashPnL,
		Inventory:        res.Summary.Inventory,
		MaxInventory:     res.Summary.MaxInventory,
		AggressiveVolume: res.Summary.AggressiveVolume,
		FillCount:        res.Summary.Fills,
		Blowup:           res.Summary.Blowup,
		BlowupReason:     res.Summary.BlowupReason,
		DurationMillis:   res.Duration.Milliseconds(),
	}

	equity := make([]domain.EquityRecord, len(res.Equity))
	for i, p := range res.Equity {
		equity[i] = domain.EquityRecord{Step: p.Step, Equity: p.Equity, Mark: p.Mark}
	}
	fills := make([]domain.FillRecord, len(res.Fills))
	for i, f := range res.Fills {
		fills[i] = domain.FillRecord{
			Step:      f.Step,
			OrderID:   f.OrderID,
			Side:      f.Side,
			Qty:       f.Qty,
			Remaining: f.Remaining,
			Price:     f.Price,
			Market:    f.Market,
		}
	}
	return run, equity, fills
}
