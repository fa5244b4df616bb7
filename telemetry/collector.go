package telemetry

import "github.com/pthm-cable/bush/systems"

// TreeTotals is the whole-tree summary the plant supplies at flush time.
type TreeTotals struct {
	Branches         int
	Growing          int
	StoppedMaxLength int
	StoppedSpace     int
	StoppedMaxGen    int
	StoppedOvercrowd int
	Leaves           int
	OccupiedArea     float64
	LAI              float64
	LeafAges         []float64
}

// Collector accumulates events within step windows and produces WindowStats.
type Collector struct {
	windowSteps     int
	windowStartStep int

	// Event counters for current window
	leavesAdded      int
	branchesSpawned  int
	mainsAdded       int
	mainsRejected    int
	offshootsRefused int
	pruned           int
	photosynthesis   float64
}

// NewCollector creates a new stats collector flushing every windowSteps steps.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{windowSteps: windowSteps}
}

// RecordGrowth accumulates one step's growth-phase report.
func (c *Collector) RecordGrowth(r systems.GrowthReport) {
	c.leavesAdded += r.LeavesAdded
	c.branchesSpawned += r.BranchesSpawned
	c.offshootsRefused += r.OffshootsRefused
}

// RecordPhotosynthesis accumulates one step's total light gain.
func (c *Collector) RecordPhotosynthesis(gain float64) {
	c.photosynthesis += gain
}

// RecordMainBranch records a main-branch proposal outcome.
func (c *Collector) RecordMainBranch(admitted bool) {
	if admitted {
		c.mainsAdded++
	} else {
		c.mainsRejected++
	}
}

// RecordPruned records branches removed by the pruning collaborator.
func (c *Collector) RecordPruned(n int) {
	c.pruned += n
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(currentStep int) bool {
	return currentStep-c.windowStartStep >= c.windowSteps
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentStep int, totals TreeTotals) WindowStats {
	mean, p10, p50, p90 := ComputeLeafAgeStats(totals.LeafAges)

	stats := WindowStats{
		WindowStartStep: c.windowStartStep,
		WindowEndStep:   currentStep,

		Branches:         totals.Branches,
		Growing:          totals.Growing,
		StoppedMaxLength: totals.StoppedMaxLength,
		StoppedSpace:     totals.StoppedSpace,
		StoppedMaxGen:    totals.StoppedMaxGen,
		StoppedOvercrowd: totals.StoppedOvercrowd,
		Leaves:           totals.Leaves,
		OccupiedArea:     totals.OccupiedArea,
		LAI:              totals.LAI,

		LeavesAdded:      c.leavesAdded,
		BranchesSpawned:  c.branchesSpawned,
		MainsAdded:       c.mainsAdded,
		MainsRejected:    c.mainsRejected,
		OffshootsRefused: c.offshootsRefused,
		Pruned:           c.pruned,
		Photosynthesis:   c.photosynthesis,

		LeafAgeMean: mean,
		LeafAgeP10:  p10,
		LeafAgeP50:  p50,
		LeafAgeP90:  p90,
	}

	// Reset for next window
	c.windowStartStep = currentStep
	c.leavesAdded = 0
	c.branchesSpawned = 0
	c.mainsAdded = 0
	c.mainsRejected = 0
	c.offshootsRefused = 0
	c.pruned = 0
	c.photosynthesis = 0

	return stats
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}

// WindowStart returns the first step of the current window.
func (c *Collector) WindowStart() int {
	return c.windowStartStep
}
