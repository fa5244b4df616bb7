package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/bush/config"
	"github.com/pthm-cable/bush/pruner"
	"github.com/pthm-cable/bush/sim"
	"github.com/pthm-cable/bush/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	steps := flag.Int("steps", 0, "Number of simulation steps (0 = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, time-based if that is 0 too)")
	outputDir := flag.String("output", "", "Output directory for CSV logs, config echo and final snapshot")
	prune := flag.Bool("prune", false, "Enable the pruning collaborator (strategy from config)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	var pr *pruner.Pruner
	if *prune || cfg.Pruning.Enabled {
		strategy, err := pruner.FromConfig(&cfg.Pruning)
		if err != nil {
			slog.Error("failed to build pruning strategy", "error", err)
			os.Exit(1)
		}
		pr = pruner.New(strategy, cfg)
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to initialize output", "error", err)
		os.Exit(1)
	}
	defer output.Close()

	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config echo", "error", err)
		os.Exit(1)
	}

	runner := sim.NewRunner(sim.Options{
		Config:   cfg,
		Seed:     *seed,
		Steps:    *steps,
		Pruner:   pr,
		Output:   output,
		LogStats: *logStats,
	})

	slog.Info("starting simulation",
		"seed", runner.Seed(),
		"steps", runner.TotalSteps(),
		"pruning", pr != nil,
		"output", output.Dir(),
	)

	if err := runner.Run(); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	plant := runner.Plant()
	totals := plant.Totals()
	slog.Info("simulation complete",
		"steps", runner.Step(),
		"branches", totals.Branches,
		"leaves", totals.Leaves,
		"occupied_area", plant.OccupiedArea(),
		"lai", plant.LAI(),
	)
}
