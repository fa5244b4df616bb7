package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/bush/config"
	"github.com/pthm-cable/bush/pruner"
	"github.com/pthm-cable/bush/sim"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	steps      int
	seeds      []int64
	baseConfig *config.Config
	strategy   string

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	lastMean    float64 // mean cumulative photosynthesis of last evaluation
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, steps int, seeds []int64, baseCfg *config.Config, strategy string) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		steps:       steps,
		seeds:       seeds,
		baseConfig:  baseCfg,
		strategy:    strategy,
		bestFitness: math.Inf(1),
	}
}

// LastMean returns the mean cumulative photosynthesis from the most
// recent evaluation.
func (fe *FitnessEvaluator) LastMean() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMean
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative mean cumulative photosynthesis across seeds:
// more light harvested = lower (better) fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel
	results := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	for _, r := range results {
		total += r
	}
	mean := total / float64(len(fe.seeds))
	fitness := -mean

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
	}
	fe.lastMean = mean
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless run and returns its
// cumulative photosynthesis.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) float64 {
	strategy, err := pruner.FromConfig(&cfg.Pruning)
	if err != nil {
		return 0
	}

	r := sim.NewRunner(sim.Options{
		Config: cfg,
		Seed:   seed,
		Steps:  fe.steps,
		Pruner: pruner.New(strategy, cfg),
	})
	if err := r.Run(); err != nil {
		return 0
	}

	var total float64
	for _, gain := range r.Plant().History() {
		total += gain
	}
	return total
}

// copyConfig creates a working copy of the base config. The pruning
// section is the only part the evaluator mutates.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Pruning.Strategy = fe.strategy
	cfg.Pruning.FixedSteps = append([]int(nil), fe.baseConfig.Pruning.FixedSteps...)
	return &cfg
}
