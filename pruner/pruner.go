package pruner

import (
	"math"
	"sort"

	"github.com/pthm-cable/bush/config"
	"github.com/pthm-cable/bush/plant"
)

// Pruner scores sub-branches by space efficiency and removes the least
// efficient fraction through Plant.PruneSubtree. Main branches are
// never candidates.
type Pruner struct {
	strategy  Strategy
	threshold float64 // efficiency score below which a branch is a candidate
	radius    float64 // neighborhood radius for the crowding term
}

// New creates a pruner with the configured strategy.
func New(strategy Strategy, cfg *config.Config) *Pruner {
	return &Pruner{
		strategy:  strategy,
		threshold: cfg.Pruning.EfficiencyThreshold,
		radius:    cfg.Branch.MinSpacing,
	}
}

// Strategy returns the active strategy.
func (pr *Pruner) Strategy() Strategy {
	return pr.strategy
}

// MaybePrune consults the strategy after the given step and prunes when
// it says so. Returns the number of branches removed.
func (pr *Pruner) MaybePrune(step int, p *plant.Plant) int {
	ratio, prune := pr.strategy.Decide(step, p)
	if !prune {
		return 0
	}
	return pr.Prune(p, ratio)
}

type candidate struct {
	info  plant.BranchInfo
	score float64
}

// Prune removes up to ratio of the current sub-branch population,
// least space-efficient first. A branch scores
// leafCount / (nearbyCount + 1); branches at or above the efficiency
// threshold are kept regardless of ratio.
func (pr *Pruner) Prune(p *plant.Plant, ratio float64) int {
	infos := p.BranchInfos()

	subCount := 0
	var candidates []candidate
	for _, info := range infos {
		if info.IsMain {
			continue
		}
		subCount++
		score := pr.score(info, infos)
		if score < pr.threshold {
			candidates = append(candidates, candidate{info: info, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	quota := int(ratio * float64(subCount))
	if quota > len(candidates) {
		quota = len(candidates)
	}

	removed := 0
	for _, c := range candidates[:quota] {
		// A candidate may already be gone as part of an earlier
		// subtree; PruneSubtree reports zero for those.
		removed += p.PruneSubtree(c.info.Entity)
	}
	return removed
}

// score computes the space-efficiency score of one branch against the
// full branch list.
func (pr *Pruner) score(info plant.BranchInfo, infos []plant.BranchInfo) float64 {
	nearby := 0
	for _, other := range infos {
		if other.Entity == info.Entity {
			continue
		}
		if math.Hypot(other.EndX-info.EndX, other.EndY-info.EndY) < pr.radius {
			nearby++
		}
	}
	if nearby == 0 {
		return float64(info.LeafCount)
	}
	return float64(info.LeafCount) / float64(nearby+1)
}
