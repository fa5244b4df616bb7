// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Leaf      LeafConfig      `yaml:"leaf"`
	Branch    BranchConfig    `yaml:"branch"`
	Plant     PlantConfig     `yaml:"plant"`
	Light     LightConfig     `yaml:"light"`
	Sim       SimConfig       `yaml:"sim"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Pruning   PruningConfig   `yaml:"pruning"`
}

// LeafConfig holds per-leaf parameters.
type LeafConfig struct {
	Area                     float64 `yaml:"area"`                      // Area of a single leaf (m²)
	PhotosynthesisEfficiency float64 `yaml:"photosynthesis_efficiency"` // Fraction of intercepted light converted
	ReflectionCoefficient    float64 `yaml:"reflection_coefficient"`    // Reserved for the reflective-loss extension
	MaxPerNode               int     `yaml:"max_per_node"`              // Leaves a single node can carry
}

// BranchConfig holds branch growth parameters.
type BranchConfig struct {
	GrowthRate         float64 `yaml:"growth_rate"`         // Length gained per step (m)
	MaxLength          float64 `yaml:"max_length"`          // Hard length cap (m)
	BranchingThreshold float64 `yaml:"branching_threshold"` // Minimum length before spawn evaluation (m)
	MaxGeneration      int     `yaml:"max_generation"`      // Deepest generation allowed to spawn children
	NodeSpacing        float64 `yaml:"node_spacing"`        // Distance between leaf nodes (m)
	MinSpacing         float64 `yaml:"min_spacing"`         // Crowding radius around branch end-points (m)
	Area               float64 `yaml:"area"`                // Growing area one branch occupies (m²)
}

// PlantConfig holds plant-level resource parameters.
type PlantConfig struct {
	TotalArea        float64 `yaml:"total_area"`         // Total growing area budget (m²)
	MainBranchChance float64 `yaml:"main_branch_chance"` // Per-step probability the driver proposes a new main branch
	MainBranchTries  int     `yaml:"main_branch_tries"`  // Candidate angles tried per proposal
}

// LightConfig holds light interception parameters.
type LightConfig struct {
	Incident        float64 `yaml:"incident"`         // Incident light intensity
	ExtinctionCoeff float64 `yaml:"extinction_coeff"` // Beer-Lambert extinction coefficient
}

// SimConfig holds run parameters.
type SimConfig struct {
	Steps int   `yaml:"steps"` // Number of discrete simulation steps
	Seed  int64 `yaml:"seed"`  // Driver RNG seed (0 = time-based)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Steps per stats window
}

// PruningConfig holds parameters for the between-step pruning collaborator.
type PruningConfig struct {
	Enabled             bool    `yaml:"enabled"`
	Strategy            string  `yaml:"strategy"`             // fixed, progressive, adaptive, space_efficient
	Ratio               float64 `yaml:"ratio"`                // Fraction of sub-branches removed per pruning pass
	Interval            int     `yaml:"interval"`             // Steps between pruning checks
	FixedSteps          []int   `yaml:"fixed_steps"`          // Steps at which the fixed strategy prunes
	OvercrowdedTrigger  int     `yaml:"overcrowded_trigger"`  // Adaptive: prune when this many branches are overcrowded
	EfficiencyThreshold float64 `yaml:"efficiency_threshold"` // Branches scoring below this are prune candidates
}

// MaxLeafSlots is the fixed per-node leaf capacity of the arena storage.
// Leaf.MaxPerNode may not exceed it.
const MaxLeafSlots = 8

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated;
// a config that fails validation never reaches the engine.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
// Violations are reported once, at configuration time, and abort the run.
func (c *Config) Validate() error {
	checks := []struct {
		ok   bool
		name string
	}{
		{c.Leaf.Area > 0, "leaf.area must be positive"},
		{c.Leaf.PhotosynthesisEfficiency > 0, "leaf.photosynthesis_efficiency must be positive"},
		{c.Leaf.ReflectionCoefficient >= 0 && c.Leaf.ReflectionCoefficient < 1, "leaf.reflection_coefficient must be in [0,1)"},
		{c.Leaf.MaxPerNode > 0, "leaf.max_per_node must be positive"},
		{c.Leaf.MaxPerNode <= MaxLeafSlots, fmt.Sprintf("leaf.max_per_node must be at most %d", MaxLeafSlots)},
		{c.Branch.GrowthRate > 0, "branch.growth_rate must be positive"},
		{c.Branch.MaxLength > 0, "branch.max_length must be positive"},
		{c.Branch.BranchingThreshold > 0, "branch.branching_threshold must be positive"},
		{c.Branch.MaxGeneration >= 0, "branch.max_generation must be non-negative"},
		{c.Branch.NodeSpacing > 0, "branch.node_spacing must be positive"},
		{c.Branch.MinSpacing > 0, "branch.min_spacing must be positive"},
		{c.Branch.Area > 0, "branch.area must be positive"},
		{c.Plant.TotalArea > 0, "plant.total_area must be positive"},
		{c.Plant.TotalArea >= c.Branch.Area, "plant.total_area must hold at least one branch"},
		{c.Plant.MainBranchChance >= 0 && c.Plant.MainBranchChance <= 1, "plant.main_branch_chance must be in [0,1]"},
		{c.Plant.MainBranchTries > 0, "plant.main_branch_tries must be positive"},
		{c.Light.Incident > 0, "light.incident must be positive"},
		{c.Light.ExtinctionCoeff > 0, "light.extinction_coeff must be positive"},
		{c.Sim.Steps > 0, "sim.steps must be positive"},
		{c.Telemetry.StatsWindow > 0, "telemetry.stats_window must be positive"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("config: %s", chk.name)
		}
	}
	if c.Pruning.Enabled {
		switch c.Pruning.Strategy {
		case "fixed", "adaptive", "progressive", "regular_with_check", "space_efficient":
		default:
			return fmt.Errorf("config: unknown pruning.strategy %q", c.Pruning.Strategy)
		}
		if c.Pruning.Ratio <= 0 || c.Pruning.Ratio >= 1 {
			return fmt.Errorf("config: pruning.ratio must be in (0,1)")
		}
		if c.Pruning.Interval <= 0 {
			return fmt.Errorf("config: pruning.interval must be positive")
		}
		if math.IsNaN(c.Pruning.EfficiencyThreshold) || c.Pruning.EfficiencyThreshold < 0 {
			return fmt.Errorf("config: pruning.efficiency_threshold must be non-negative")
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
