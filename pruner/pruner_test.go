package pruner

import (
	"math"
	"testing"

	"github.com/pthm-cable/bush/config"
	"github.com/pthm-cable/bush/plant"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"fixed", false},
		{"adaptive", false},
		{"progressive", false},
		{"regular_with_check", false},
		{"space_efficient", false},
		{"topiary", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Pruning.Strategy = tt.name
			s, err := FromConfig(&cfg.Pruning)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unknown strategy")
				}
				return
			}
			if err != nil {
				t.Fatalf("FromConfig: %v", err)
			}
			if s.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.name)
			}
		})
	}
}

func TestFixedDecide(t *testing.T) {
	s := &Fixed{Steps: []int{50, 100}, Ratio: 0.2}

	if _, prune := s.Decide(49, nil); prune {
		t.Error("pruned at an unlisted step")
	}
	ratio, prune := s.Decide(50, nil)
	if !prune || ratio != 0.2 {
		t.Errorf("Decide(50) = (%v, %v), want (0.2, true)", ratio, prune)
	}
	if _, prune := s.Decide(51, nil); prune {
		t.Error("pruned at an unlisted step")
	}
}

func TestProgressiveDecide(t *testing.T) {
	s := &Progressive{Interval: 50, BaseRatio: 0.1, MaxRatio: 0.25}

	if _, prune := s.Decide(0, nil); prune {
		t.Error("pruned at step 0")
	}
	if _, prune := s.Decide(49, nil); prune {
		t.Error("pruned off-interval")
	}

	wantRatios := map[int]float64{50: 0.1, 100: 0.2, 150: 0.25, 200: 0.25}
	for step, want := range wantRatios {
		ratio, prune := s.Decide(step, nil)
		if !prune {
			t.Errorf("Decide(%d): no prune", step)
			continue
		}
		if math.Abs(ratio-want) > 1e-12 {
			t.Errorf("Decide(%d) ratio = %v, want %v", step, ratio, want)
		}
	}
}

func TestSpaceEfficientDecide(t *testing.T) {
	cfg := testConfig(t)
	cfg.Plant.TotalArea = 0.3
	cfg.Branch.Area = 0.1
	p := plant.New(cfg)
	p.AddMainBranch(0)
	p.AddMainBranch(math.Pi)

	s := &SpaceEfficient{Interval: 10, Ratio: 0.2}

	// 2 of 3 units used: past 60%, below 80% -> half ratio.
	ratio, prune := s.Decide(10, p)
	if !prune || math.Abs(ratio-0.1) > 1e-12 {
		t.Errorf("at 67%% usage: (%v, %v), want (0.1, true)", ratio, prune)
	}

	p.AddMainBranch(math.Pi / 2)
	ratio, prune = s.Decide(10, p)
	if !prune || ratio != 0.2 {
		t.Errorf("at 100%% usage: (%v, %v), want (0.2, true)", ratio, prune)
	}

	if _, prune := s.Decide(11, p); prune {
		t.Error("pruned off-interval")
	}
}

func TestAdaptiveDecide(t *testing.T) {
	p := plant.New(testConfig(t))
	p.AddMainBranch(0)

	s := &Adaptive{Trigger: 0, Ratio: 0.2}
	if _, prune := s.Decide(1, p); prune {
		t.Error("pruned with no overcrowded branches")
	}
}

func TestPruneRemovesInefficientSubBranches(t *testing.T) {
	cfg := testConfig(t)
	p := plant.New(cfg)
	p.AddMainBranch(0)

	// The main spawns two leafless children at step 4; both score zero.
	for i := 0; i < 4; i++ {
		p.Step()
	}
	if got := p.Totals().Branches; got != 3 {
		t.Fatalf("branches = %d, want 3", got)
	}

	pr := New(&Fixed{Steps: []int{4}, Ratio: 1.0}, cfg)
	removed := pr.MaybePrune(4, p)
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if got := p.Totals().Branches; got != 1 {
		t.Errorf("branches after prune = %d, want 1", got)
	}
}

func TestPruneKeepsEfficientBranches(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pruning.EfficiencyThreshold = 0 // nothing scores below zero
	p := plant.New(cfg)
	p.AddMainBranch(0)
	for i := 0; i < 4; i++ {
		p.Step()
	}

	pr := New(&Fixed{Steps: []int{4}, Ratio: 1.0}, cfg)
	if removed := pr.MaybePrune(4, p); removed != 0 {
		t.Errorf("removed = %d, want 0 with zero threshold", removed)
	}
}

func TestPruneQuotaLimitsRemoval(t *testing.T) {
	cfg := testConfig(t)
	p := plant.New(cfg)
	p.AddMainBranch(0)
	for i := 0; i < 4; i++ {
		p.Step()
	}

	// Ratio 0.5 of 2 sub-branches allows one removal.
	pr := New(&Fixed{Steps: []int{4}, Ratio: 0.5}, cfg)
	if removed := pr.MaybePrune(4, p); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if got := p.Totals().Branches; got != 2 {
		t.Errorf("branches = %d, want 2", got)
	}
}
