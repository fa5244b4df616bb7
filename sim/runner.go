// Package sim drives a plant through a full simulation run: per-step
// main-branch proposals, the atomic plant step, between-step pruning
// and telemetry windows. All randomness lives here; the plant itself is
// deterministic given its inputs.
package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/bush/config"
	"github.com/pthm-cable/bush/plant"
	"github.com/pthm-cable/bush/pruner"
	"github.com/pthm-cable/bush/telemetry"
)

// Options configures a simulation run.
type Options struct {
	Config *config.Config
	Seed   int64 // 0 = config seed, which at 0 falls back to wall clock
	Steps  int   // 0 = config steps

	Pruner   *pruner.Pruner           // nil disables pruning
	Output   *telemetry.OutputManager // nil disables file output
	Stats    func(telemetry.WindowStats)
	LogStats bool
}

// Runner executes one simulation run.
type Runner struct {
	cfg       *config.Config
	rng       *rand.Rand
	seed      int64
	steps     int
	plant     *plant.Plant
	collector *telemetry.Collector
	pruner    *pruner.Pruner
	output    *telemetry.OutputManager
	stats     func(telemetry.WindowStats)
	logStats  bool
	step      int
}

// NewRunner creates a runner from options.
func NewRunner(opts Options) *Runner {
	cfg := opts.Config

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Sim.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	steps := opts.Steps
	if steps == 0 {
		steps = cfg.Sim.Steps
	}

	return &Runner{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		seed:      seed,
		steps:     steps,
		plant:     plant.New(cfg),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		pruner:    opts.Pruner,
		output:    opts.Output,
		stats:     opts.Stats,
		logStats:  opts.LogStats,
	}
}

// Plant returns the plant being driven.
func (r *Runner) Plant() *plant.Plant {
	return r.plant
}

// Seed returns the effective RNG seed of this run.
func (r *Runner) Seed() int64 {
	return r.seed
}

// Step returns the number of completed steps.
func (r *Runner) Step() int {
	return r.step
}

// TotalSteps returns the configured run length.
func (r *Runner) TotalSteps() int {
	return r.steps
}

// Run executes the configured number of steps.
func (r *Runner) Run() error {
	for r.step < r.steps {
		if err := r.StepOnce(); err != nil {
			return err
		}
	}
	return r.finish()
}

// StepOnce advances the run by one step: the atomic plant step, then
// the main-branch roll, then pruning, then telemetry.
func (r *Runner) StepOnce() error {
	result := r.plant.Step()
	r.step++
	r.collector.RecordGrowth(result.Report)
	r.collector.RecordPhotosynthesis(result.Photosynthesis)

	if r.rng.Float64() < r.cfg.Plant.MainBranchChance {
		r.proposeMainBranch()
	}

	if r.pruner != nil {
		if removed := r.pruner.MaybePrune(r.step, r.plant); removed > 0 {
			r.collector.RecordPruned(removed)
		}
	}

	if err := r.output.WriteStep(telemetry.StepRecord{
		Step:           r.step,
		Photosynthesis: result.Photosynthesis,
		LAI:            result.LAI,
	}); err != nil {
		return err
	}

	if r.collector.ShouldFlush(r.step) {
		return r.flush()
	}
	return nil
}

// proposeMainBranch tries a handful of random angles; the plant's
// admission rules decide. One proposal counts once, admitted or not.
func (r *Runner) proposeMainBranch() {
	admitted := false
	for try := 0; try < r.cfg.Plant.MainBranchTries && !admitted; try++ {
		angle := r.rng.Float64() * 2 * math.Pi
		admitted = r.plant.AddMainBranch(angle)
	}
	r.collector.RecordMainBranch(admitted)
}

func (r *Runner) flush() error {
	stats := r.collector.Flush(r.step, r.plant.Totals())
	if r.logStats {
		stats.LogStats()
	}
	if r.stats != nil {
		r.stats(stats)
	}
	return r.output.WriteStats(stats)
}

// finish flushes a trailing partial window and writes the final snapshot.
func (r *Runner) finish() error {
	if r.step > r.collector.WindowStart() {
		if err := r.flush(); err != nil {
			return err
		}
	}

	snap := r.plant.Snapshot()
	snap.RNGSeed = r.seed
	if _, err := r.output.WriteSnapshot(snap); err != nil {
		return err
	}
	return nil
}
