package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated statistics for a window of simulation steps.
type WindowStats struct {
	WindowStartStep int `csv:"-"`
	WindowEndStep   int `csv:"window_end"`

	// Tree state at window end
	Branches         int     `csv:"branches"`
	Growing          int     `csv:"growing"`
	StoppedMaxLength int     `csv:"stopped_max_length"`
	StoppedSpace     int     `csv:"stopped_space"`
	StoppedMaxGen    int     `csv:"stopped_max_generation"`
	StoppedOvercrowd int     `csv:"stopped_overcrowded"`
	Leaves           int     `csv:"leaves"`
	OccupiedArea     float64 `csv:"occupied_area"`
	LAI              float64 `csv:"lai"`

	// Events during window
	LeavesAdded      int `csv:"leaves_added"`
	BranchesSpawned  int `csv:"branches_spawned"`
	MainsAdded       int `csv:"mains_added"`
	MainsRejected    int `csv:"mains_rejected"`
	OffshootsRefused int `csv:"offshoots_refused"`
	Pruned           int `csv:"pruned"`

	// Photosynthesis accumulated over the window
	Photosynthesis float64 `csv:"photosynthesis"`

	// Leaf age distribution (sampled at window end)
	LeafAgeMean float64 `csv:"leaf_age_mean"`
	LeafAgeP10  float64 `csv:"leaf_age_p10"`
	LeafAgeP50  float64 `csv:"leaf_age_p50"`
	LeafAgeP90  float64 `csv:"leaf_age_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeLeafAgeStats calculates mean and percentiles from leaf ages.
func ComputeLeafAgeStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartStep),
		slog.Int("window_end", s.WindowEndStep),
		slog.Int("branches", s.Branches),
		slog.Int("growing", s.Growing),
		slog.Int("stopped_max_length", s.StoppedMaxLength),
		slog.Int("stopped_space", s.StoppedSpace),
		slog.Int("stopped_max_generation", s.StoppedMaxGen),
		slog.Int("stopped_overcrowded", s.StoppedOvercrowd),
		slog.Int("leaves", s.Leaves),
		slog.Float64("occupied_area", s.OccupiedArea),
		slog.Float64("lai", s.LAI),
		slog.Int("leaves_added", s.LeavesAdded),
		slog.Int("branches_spawned", s.BranchesSpawned),
		slog.Int("mains_added", s.MainsAdded),
		slog.Int("mains_rejected", s.MainsRejected),
		slog.Int("offshoots_refused", s.OffshootsRefused),
		slog.Int("pruned", s.Pruned),
		slog.Float64("photosynthesis", s.Photosynthesis),
		slog.Float64("leaf_age_mean", s.LeafAgeMean),
		slog.Float64("leaf_age_p10", s.LeafAgeP10),
		slog.Float64("leaf_age_p50", s.LeafAgeP50),
		slog.Float64("leaf_age_p90", s.LeafAgeP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndStep,
		"branches", s.Branches,
		"growing", s.Growing,
		"stopped_max_length", s.StoppedMaxLength,
		"stopped_space", s.StoppedSpace,
		"stopped_max_generation", s.StoppedMaxGen,
		"stopped_overcrowded", s.StoppedOvercrowd,
		"leaves", s.Leaves,
		"occupied_area", s.OccupiedArea,
		"lai", s.LAI,
		"leaves_added", s.LeavesAdded,
		"branches_spawned", s.BranchesSpawned,
		"mains_added", s.MainsAdded,
		"mains_rejected", s.MainsRejected,
		"offshoots_refused", s.OffshootsRefused,
		"pruned", s.Pruned,
		"photosynthesis", s.Photosynthesis,
		"leaf_age_mean", s.LeafAgeMean,
		"leaf_age_p10", s.LeafAgeP10,
		"leaf_age_p50", s.LeafAgeP50,
		"leaf_age_p90", s.LeafAgeP90,
	)
}
