package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"exchange_sim/internal/domain"
	"exchange_sim/internal/strategy"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 SIM_* 환경 변수로 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Simulation SimulationConfig `yaml:"simulation"`

	Blowup struct {
		Disabled       bool  `yaml:"disabled"`
		InventoryLimit int64 `yaml:"inventory_limit"`
		LossLimit      int64 `yaml:"loss_limit"`
	} `yaml:"blowup"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

// SimulationConfig selects what to run. Zero Steps and nil Seed keep the
// scenario's own values.
type SimulationConfig struct {
	Scenario      string `yaml:"scenario"`
	Steps         int    `yaml:"steps"`
	Seed          *int64 `yaml:"seed"`
	HaltOnBlowup  bool   `yaml:"halt_on_blowup"`
	ProgressEvery int    `yaml:"progress_every"`
	DumpPath      string `yaml:"dump_path"`

	Participant struct {
		ID       string `yaml:"id"`
		Strategy string `yaml:"strategy"` // empty runs the market without a participant
	} `yaml:"participant"`

	Batch struct {
		Seeds       int `yaml:"seeds"`
		Parallelism int `yaml:"parallelism"`
	} `yaml:"batch"`
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config %s: %w", path, domain.ErrConfigNotFound)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// 환경 변수 오버라이드 지원
	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	// 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the values used for keys the file leaves out.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "exchange_sim"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	cfg.Logging.File = "sim.log"
	cfg.Storage.Path = "data/runs.db"
	cfg.Simulation.Scenario = "configs/scenarios/normal_market.yaml"
	cfg.Simulation.ProgressEvery = 3600
	cfg.Simulation.Participant.ID = "student"
	cfg.Simulation.Batch.Seeds = 1
	cfg.Simulation.Batch.Parallelism = 4
	cfg.Blowup.InventoryLimit = domain.DefaultInventoryLimit
	cfg.Blowup.LossLimit = domain.DefaultLossLimit
	cfg.Metrics.Addr = "localhost:6060"
	return cfg
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}
	if c.Storage.Path == "" {
		return &domain.ConfigError{Field: "storage.path", Err: errors.New("must not be empty")}
	}

	sim := c.Simulation
	if sim.Scenario == "" {
		return &domain.ConfigError{Field: "simulation.scenario", Err: errors.New("must not be empty")}
	}
	if sim.Steps < 0 {
		return &domain.ConfigError{Field: "simulation.steps", Err: errors.New("must not be negative")}
	}
	if sim.Participant.Strategy != "" {
		if sim.Participant.ID == "" {
			return &domain.ConfigError{Field: "simulation.participant.id", Err: errors.New("required with a strategy")}
		}
		if _, err := strategy.New(sim.Participant.Strategy); err != nil {
			return &domain.ConfigError{Field: "simulation.participant.strategy", Err: err}
		}
	}
	if sim.Batch.Seeds < 1 {
		return &domain.ConfigError{Field: "simulation.batch.seeds", Err: errors.New("must be at least 1")}
	}
	if sim.Batch.Parallelism < 1 {
		return &domain.ConfigError{Field: "simulation.batch.parallelism", Err: errors.New("must be at least 1")}
	}

	if !c.Blowup.Disabled && (c.Blowup.InventoryLimit <= 0 || c.Blowup.LossLimit <= 0) {
		return &domain.ConfigError{Field: "blowup", Err: errors.New("limits must be positive")}
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return &domain.ConfigError{Field: "metrics.addr", Err: errors.New("required when metrics are enabled")}
	}
	return nil
}

// BlowupPolicy builds the participant blowup rules, or nil when disabled.
func (c *Config) BlowupPolicy() *domain.BlowupPolicy {
	if c.Blowup.Disabled {
		return nil
	}
	return &domain.BlowupPolicy{Rules: []*domain.BlowupRule{
		domain.NewInventoryRule(c.Blowup.InventoryLimit),
		domain.NewLossRule(c.Blowup.LossLimit),
	}}
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) error {
	if v := os.Getenv("SIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SIM_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("SIM_SCENARIO"); v != "" {
		cfg.Simulation.Scenario = v
	}
	if v := os.Getenv("SIM_STRATEGY"); v != "" {
		cfg.Simulation.Participant.Strategy = v
	}
	if v := os.Getenv("SIM_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &domain.ConfigError{Field: "SIM_SEED", Err: err}
		}
		cfg.Simulation.Seed = &seed
	}
	if v := os.Getenv("SIM_STEPS"); v != "" {
		steps, err := strconv.Atoi(v)
		if err != nil {
			return &domain.ConfigError{Field: "SIM_STEPS", Err: err}
		}
		cfg.Simulation.Steps = steps
	}
	if v := os.Getenv("SIM_BATCH_SEEDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &domain.ConfigError{Field: "SIM_BATCH_SEEDS", Err: err}
		}
		cfg.Simulation.Batch.Seeds = n
	}
	if v := os.Getenv("SIM_HALT_ON_BLOWUP"); v != "" {
		halt, err := strconv.ParseBool(v)
		if err != nil {
			return &domain.ConfigError{Field: "SIM_HALT_ON_BLOWUP", Err: err}
		}
		cfg.Simulation.HaltOnBlowup = halt
	}
	return nil
}
