package scenario

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"exchange_sim/internal/domain"

	"gopkg.in/yaml.v3"
)

// File is a scenario document as written on disk. Pointer fields tell an
// absent key from an explicit zero so that Resolve can apply defaults.
type File struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Seed        *int64     `yaml:"seed"`
	Steps       *int       `yaml:"steps"`
	Market      MarketRaw  `yaml:"market"`
	Traders     TradersRaw `yaml:"traders"`
	Events      []EventRaw `yaml:"events"`
}

type MarketRaw struct {
	InitialFundamentalValue   *float64 `yaml:"initialFundamentalValue"`
	Volatility                *float64 `yaml:"volatility"`
	FundamentalUpdateInterval *int     `yaml:"fundamentalUpdateInterval"`
}

// TradersRaw maps category names to their parameter records.
// A nil category means zero instances.
type TradersRaw struct {
	Fundamental       *FundamentalRaw   `yaml:"fundamental"`
	MomentumLongTerm  *MomentumRaw      `yaml:"momentumLongTerm"`
	MomentumShortTerm *MomentumRaw      `yaml:"momentumShortTerm"`
	Noise             *NoiseRaw         `yaml:"noise"`
	MarketMaker       *MarketMakerRaw   `yaml:"marketMaker"`
	Institutional     *InstitutionalRaw `yaml:"institutional"`
	Spiking           *SpikingRaw       `yaml:"spiking"`
}

type FundamentalRaw struct {
	Count    *int     `yaml:"count"`
	Kappa1   *float64 `yaml:"kappa1"`
	Kappa2   *float64 `yaml:"kappa2"`
	Interval *int     `yaml:"interval"`
}

// MomentumRaw accepts decayRate/alpha for rho and chi/beta for chi;
// the first name wins when both are present.
type MomentumRaw struct {
	Count      *int     `yaml:"count"`
	DecayRate  *float64 `yaml:"decayRate"`
	Alpha      *float64 `yaml:"alpha"`
	Chi        *float64 `yaml:"chi"`
	Beta       *float64 `yaml:"beta"`
	Psi        *float64 `yaml:"psi"`
	CancelRate *float64 `yaml:"cancelRate"`
}

type NoiseRaw struct {
	Count      *int     `yaml:"count"`
	Eta        *float64 `yaml:"eta"`
	Sigma      *float64 `yaml:"sigma"`
	Kappa      *float64 `yaml:"kappa"`
	CancelRate *float64 `yaml:"cancelRate"`
}

type MarketMakerRaw struct {
	Count          *int     `yaml:"count"`
	InventoryLimit *int64   `yaml:"inventoryLimit"`
	SafeInventory  *int64   `yaml:"safeInventory"`
	RestPeriod     *int     `yaml:"restPeriod"`
	MaxEdge        *float64 `yaml:"maxEdge"`
	SpreadEdge     *float64 `yaml:"spreadEdge"`
	Gamma          *float64 `yaml:"gamma"`
	Delta          *float64 `yaml:"delta"`
}

// InstitutionalRaw holds wall-clock style fields: orderInterval in seconds,
// percentageOfVolume in percent, startTime as "HH:MM[:SS]".
type InstitutionalRaw struct {
	Count              *int     `yaml:"count"`
	InitialInventory   *int64   `yaml:"initialInventory"`
	PercentageOfVolume *float64 `yaml:"percentageOfVolume"`
	OrderInterval      *int     `yaml:"orderInterval"`
	StartStep          *int     `yaml:"startStep"`
	StartTime          *string  `yaml:"startTime"`
}

type SpikingRaw struct {
	Count                 *int     `yaml:"count"`
	SpikeLength           *int     `yaml:"spikeLength"`
	ActivationProbability *float64 `yaml:"activationProbability"`
	OrderVolume           *int64   `yaml:"orderVolume"`
}

// EventRaw schedules a parameter change. Step wins over Time.
type EventRaw struct {
	Step  *int    `yaml:"step"`
	Time  string  `yaml:"time"`
	Type  string  `yaml:"type"`
	Value float64 `yaml:"value"`
}

// Load reads, resolves and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("scenario %s: %w", path, domain.ErrConfigNotFound)
		}
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse decodes a scenario document and resolves it.
func Parse(data []byte) (*Scenario, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return f.Resolve()
}
