// Package pruner removes low-value sub-branches from a plant between
// simulation steps. It is an external collaborator: the engine itself
// never prunes, and pruning never revives a stopped branch.
package pruner

import (
	"fmt"

	"github.com/pthm-cable/bush/config"
	"github.com/pthm-cable/bush/plant"
)

// Strategy decides whether to prune after the given step and at what
// ratio of the current sub-branch population.
type Strategy interface {
	Name() string
	Decide(step int, p *plant.Plant) (ratio float64, prune bool)
}

// Fixed prunes at a fixed list of steps with a constant ratio.
type Fixed struct {
	Steps []int
	Ratio float64
}

func (s *Fixed) Name() string { return "fixed" }

func (s *Fixed) Decide(step int, _ *plant.Plant) (float64, bool) {
	for _, at := range s.Steps {
		if step == at {
			return s.Ratio, true
		}
	}
	return 0, false
}

// Adaptive prunes whenever the number of overcrowded branches exceeds
// a trigger count.
type Adaptive struct {
	Trigger int
	Ratio   float64
}

func (s *Adaptive) Name() string { return "adaptive" }

func (s *Adaptive) Decide(_ int, p *plant.Plant) (float64, bool) {
	if p.OvercrowdedCount() > s.Trigger {
		return s.Ratio, true
	}
	return 0, false
}

// Progressive prunes at every interval with a ratio that rises each
// time: BaseRatio at the first interval, twice that at the second, and
// so on, capped at MaxRatio.
type Progressive struct {
	Interval  int
	BaseRatio float64
	MaxRatio  float64
}

func (s *Progressive) Name() string { return "progressive" }

func (s *Progressive) Decide(step int, _ *plant.Plant) (float64, bool) {
	if step == 0 || step%s.Interval != 0 {
		return 0, false
	}
	ratio := s.BaseRatio * float64(step/s.Interval)
	if ratio > s.MaxRatio {
		ratio = s.MaxRatio
	}
	return ratio, true
}

// RegularWithCheck prunes at every interval, scaling the ratio with the
// overcrowded count: base ratio normally, doubled past Trigger, tripled
// past twice the trigger.
type RegularWithCheck struct {
	Interval  int
	BaseRatio float64
	Trigger   int
}

func (s *RegularWithCheck) Name() string { return "regular_with_check" }

func (s *RegularWithCheck) Decide(step int, p *plant.Plant) (float64, bool) {
	if step == 0 || step%s.Interval != 0 {
		return 0, false
	}
	ratio := s.BaseRatio
	overcrowded := p.OvercrowdedCount()
	if overcrowded > 2*s.Trigger {
		ratio = 3 * s.BaseRatio
	} else if overcrowded > s.Trigger {
		ratio = 2 * s.BaseRatio
	}
	return ratio, true
}

// SpaceEfficient checks area usage at every interval: past 80% of the
// budget it prunes at the full ratio, past 60% at half of it.
type SpaceEfficient struct {
	Interval int
	Ratio    float64
}

func (s *SpaceEfficient) Name() string { return "space_efficient" }

func (s *SpaceEfficient) Decide(step int, p *plant.Plant) (float64, bool) {
	if step == 0 || step%s.Interval != 0 {
		return 0, false
	}
	used := p.OccupiedArea() / p.TotalArea()
	switch {
	case used > 0.8:
		return s.Ratio, true
	case used > 0.6:
		return s.Ratio / 2, true
	}
	return 0, false
}

// FromConfig builds the configured strategy.
func FromConfig(cfg *config.PruningConfig) (Strategy, error) {
	switch cfg.Strategy {
	case "fixed":
		return &Fixed{Steps: cfg.FixedSteps, Ratio: cfg.Ratio}, nil
	case "adaptive":
		return &Adaptive{Trigger: cfg.OvercrowdedTrigger, Ratio: cfg.Ratio}, nil
	case "progressive":
		return &Progressive{Interval: cfg.Interval, BaseRatio: cfg.Ratio, MaxRatio: 0.5}, nil
	case "regular_with_check":
		return &RegularWithCheck{Interval: cfg.Interval, BaseRatio: cfg.Ratio, Trigger: cfg.OvercrowdedTrigger}, nil
	case "space_efficient":
		return &SpaceEfficient{Interval: cfg.Interval, Ratio: cfg.Ratio}, nil
	}
	return nil, fmt.Errorf("pruner: unknown strategy %q", cfg.Strategy)
}
