package app

import (
	"log/slog"

	"exchange_sim/internal/infra"
	"exchange_sim/internal/infra/storage"
	"exchange_sim/internal/scenario"
	"exchange_sim/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Storage  *storage.Storage
	Registry *prometheus.Registry
	Runs     *service.RunService
	Logger   *slog.Logger
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logging, DB, metrics)
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping Exchange Sim...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	b.Logger = infra.NewLogger(cfg)
	slog.SetDefault(b.Logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized", slog.String("path", cfg.Storage.Path))

	// 4. Metrics Registry
	b.Registry = prometheus.NewRegistry()
	b.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := infra.GlobalMetrics.Register(b.Registry); err != nil {
		return err
	}
	slog.Info("✅ Metrics registered")

	// 5. Run Service
	b.Runs = service.NewRunService(store, infra.GlobalMetrics, b.Logger)

	return nil
}

// LoadScenario reads the scenario file named by the config.
func (b *Bootstrap) LoadScenario() (*scenario.Scenario, error) {
	sc, err := scenario.Load(b.Config.Simulation.Scenario)
	if err != nil {
		return nil, err
	}
	slog.Info("✅ Scenario loaded",
		slog.String("name", sc.Name),
		slog.Int("traders", sc.TraderCount()),
		slog.Int("steps", sc.Steps),
	)
	return sc, nil
}

// Request builds a run request from the simulation config.
func (b *Bootstrap) Request(sc *scenario.Scenario) service.RunRequest {
	sim := b.Config.Simulation
	return service.RunRequest{
		Scenario:      sc,
		Seed:          sim.Seed,
		Steps:         sim.Steps,
		ParticipantID: sim.Participant.ID,
		Strategy:      sim.Participant.Strategy,
		Blowup:        b.Config.BlowupPolicy(),
		HaltOnBlowup:  sim.HaltOnBlowup,
		ProgressEvery: sim.ProgressEvery,
		DumpPath:      sim.DumpPath,
	}
}

// Close releases the storage connection.
func (b *Bootstrap) Close() {
	if b.Storage == nil {
		return
	}
	if err := b.Storage.Close(); err != nil {
		slog.Error("Failed to close storage", slog.Any("error", err))
	}
}
