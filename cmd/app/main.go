package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"exchange_sim/internal/app"
	"exchange_sim/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "application config file")
	scenarioPath := flag.String("scenario", "", "scenario file (overrides config)")
	seed := flag.Int64("seed", 0, "RNG seed (overrides config and scenario)")
	steps := flag.Int("steps", 0, "number of steps (overrides config and scenario)")
	seeds := flag.Int("seeds", 0, "batch size: run consecutive seeds starting at the base seed")
	flag.Parse()

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scenario":
			cfg.Simulation.Scenario = *scenarioPath
		case "seed":
			cfg.Simulation.Seed = seed
		case "steps":
			cfg.Simulation.Steps = *steps
		case "seeds":
			cfg.Simulation.Batch.Seeds = *seeds
		}
	})

	// 2. Metrics + Pprof Server
	if cfg.Metrics.Enabled {
		http.Handle("/metrics", promhttp.HandlerFor(bootstrap.Registry, promhttp.HandlerOpts{}))
		go func() {
			slog.Info("🕵️ Metrics server started", slog.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, nil); err != nil {
				slog.Error("Metrics server failed", slog.Any("error", err))
			}
		}()
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Scenario
	sc, err := bootstrap.LoadScenario()
	if err != nil {
		slog.Error("❌ Scenario load failed", slog.Any("error", err))
		os.Exit(1)
	}
	req := bootstrap.Request(sc)

	// 5. Run
	if n := cfg.Simulation.Batch.Seeds; n > 1 {
		base := sc.Seed
		if req.Seed != nil {
			base = *req.Seed
		}
		runBatch(ctx, bootstrap.Runs, req, service.Seeds(base, n), cfg.Simulation.Batch.Parallelism)
		return
	}
	runSingle(ctx, bootstrap.Runs, req)
}

func runSingle(ctx context.Context, runs *service.RunService, req service.RunRequest) {
	out, err := runs.Run(ctx, req)
	if errors.Is(err, context.Canceled) {
		slog.Info("👋 Run interrupted", slog.Int("step", out.Result.Stats.Steps))
		return
	}
	if err != nil {
		slog.Error("❌ Run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logOutcome(out)
}

func runBatch(ctx context.Context, runs *service.RunService, req service.RunRequest, seeds []int64, parallelism int) {
	slog.Info("🔄 Starting batch", slog.Int("runs", len(seeds)), slog.Int("parallelism", parallelism))

	outcomes, err := runs.RunBatch(ctx, req, seeds, parallelism)
	if errors.Is(err, context.Canceled) {
		slog.Info("👋 Batch interrupted")
		return
	}
	if err != nil {
		slog.Error("❌ Batch failed", slog.Any("error", err))
		os.Exit(1)
	}

	var blowups int
	var equity float64
	for _, out := range outcomes {
		logOutcome(out)
		if out.Result.Summary.Blowup {
			blowups++
		}
		equity += out.Result.Summary.LastEquity
	}
	slog.Info("✨ Batch completed",
		slog.Int("runs", len(outcomes)),
		slog.Int("blowups", blowups),
		slog.Float64("mean_final_equity", equity/float64(len(outcomes))),
	)
}

func logOutcome(out *service.RunOutcome) {
	res := out.Result
	slog.Info("✅ Run completed",
		slog.String("run_id", out.RunID),
		slog.String("scenario", res.Scenario),
		slog.Int64("seed", res.Seed),
		slog.Int("steps", res.Steps),
		slog.Uint64("fills", res.Stats.Fills),
		slog.Float64("final_fundamental", res.FinalFundamental),
		slog.String("cash_pnl", res.Summary.CashPnL),
		slog.Int64("inventory", res.Summary.Inventory),
		slog.Float64("final_equity", res.Summary.LastEquity),
		slog.Bool("blowup", res.Summary.Blowup),
		slog.String("blowup_reason", res.Summary.BlowupReason),
		slog.Bool("halted", res.Halted),
		slog.Duration("duration", res.Duration),
	)
}
