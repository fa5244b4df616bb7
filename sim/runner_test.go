package sim

import (
	"testing"

	"github.com/pthm-cable/bush/config"
	"github.com/pthm-cable/bush/pruner"
	"github.com/pthm-cable/bush/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func TestRunnerRunsConfiguredSteps(t *testing.T) {
	cfg := testConfig(t)
	r := NewRunner(Options{Config: cfg, Seed: 42, Steps: 30})

	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Step() != 30 {
		t.Errorf("steps = %d, want 30", r.Step())
	}
	if got := len(r.Plant().History()); got != 30 {
		t.Errorf("history length = %d, want 30", got)
	}
}

func TestRunnerDeterministicForSeed(t *testing.T) {
	cfg := testConfig(t)

	run := func() ([]float64, int) {
		r := NewRunner(Options{Config: cfg, Seed: 7, Steps: 60})
		if err := r.Run(); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return r.Plant().History(), r.Plant().Totals().Branches
	}

	historyA, branchesA := run()
	historyB, branchesB := run()

	if branchesA != branchesB {
		t.Errorf("branch counts differ: %d vs %d", branchesA, branchesB)
	}
	for i := range historyA {
		if historyA[i] != historyB[i] {
			t.Fatalf("history diverges at step %d: %v vs %v", i, historyA[i], historyB[i])
		}
	}
}

func TestRunnerFlushesWindows(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.StatsWindow = 10

	var windows []telemetry.WindowStats
	r := NewRunner(Options{
		Config: cfg,
		Seed:   42,
		Steps:  25,
		Stats:  func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Two full windows plus the trailing partial one.
	if len(windows) != 3 {
		t.Fatalf("windows = %d, want 3", len(windows))
	}
	if windows[0].WindowEndStep != 10 || windows[1].WindowEndStep != 20 || windows[2].WindowEndStep != 25 {
		t.Errorf("window ends = %d, %d, %d, want 10, 20, 25",
			windows[0].WindowEndStep, windows[1].WindowEndStep, windows[2].WindowEndStep)
	}
}

func TestRunnerWithPruning(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pruning.Enabled = true
	cfg.Pruning.Strategy = "space_efficient"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	strategy, err := pruner.FromConfig(&cfg.Pruning)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}

	r := NewRunner(Options{
		Config: cfg,
		Seed:   42,
		Steps:  80,
		Pruner: pruner.New(strategy, cfg),
	})
	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	p := r.Plant()
	if p.OccupiedArea() > p.TotalArea()+1e-9 {
		t.Errorf("occupied %v exceeds budget %v after pruning run", p.OccupiedArea(), p.TotalArea())
	}
	if len(p.History()) != 80 {
		t.Errorf("history length = %d, want 80", len(p.History()))
	}
}

func TestRunnerSeedFallsBackToConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sim.Seed = 99

	r := NewRunner(Options{Config: cfg, Steps: 1})
	if r.Seed() != 99 {
		t.Errorf("seed = %d, want config seed 99", r.Seed())
	}
}
