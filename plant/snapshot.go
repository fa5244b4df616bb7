package plant

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/bush/components"
	"github.com/pthm-cable/bush/telemetry"
)

// BranchInfo is the per-branch view handed to external collaborators
// such as the pruner.
type BranchInfo struct {
	Entity     ecs.Entity
	EndX, EndY float64
	Generation int32
	Status     components.BranchStatus
	LeafCount  int
	IsMain     bool
}

// BranchInfos returns one entry per live branch, in arena order.
func (p *Plant) BranchInfos() []BranchInfo {
	var infos []BranchInfo
	query := p.filter.Query()
	for query.Next() {
		seg, growth, canopy, _ := query.Get()
		e := query.Entity()
		ex, ey := seg.End()
		infos = append(infos, BranchInfo{
			Entity:     e,
			EndX:       ex,
			EndY:       ey,
			Generation: growth.Generation,
			Status:     growth.Status,
			LeafCount:  canopy.LeafCount(),
			IsMain:     p.isMain(e),
		})
	}
	return infos
}

// OvercrowdedCount returns the number of branches stopped by crowding.
func (p *Plant) OvercrowdedCount() int {
	count := 0
	query := p.filter.Query()
	for query.Next() {
		_, growth, _, _ := query.Get()
		if growth.Status == components.StatusOvercrowded {
			count++
		}
	}
	return count
}

// Totals summarizes the whole tree for a telemetry window flush.
func (p *Plant) Totals() telemetry.TreeTotals {
	totals := telemetry.TreeTotals{
		OccupiedArea: p.occupiedArea,
		LAI:          p.lai,
	}

	query := p.filter.Query()
	for query.Next() {
		_, growth, canopy, _ := query.Get()
		totals.Branches++
		switch growth.Status {
		case components.StatusGrowing:
			totals.Growing++
		case components.StatusMaxLength:
			totals.StoppedMaxLength++
		case components.StatusSpaceConstraint:
			totals.StoppedSpace++
		case components.StatusMaxGeneration:
			totals.StoppedMaxGen++
		case components.StatusOvercrowded:
			totals.StoppedOvercrowd++
		}
		for i := range canopy.Nodes {
			node := &canopy.Nodes[i]
			for j := uint8(0); j < node.Count; j++ {
				totals.Leaves++
				totals.LeafAges = append(totals.LeafAges, float64(node.Leaves[j].Age))
			}
		}
	}
	return totals
}

// Snapshot builds a read-only view of the whole tree at the current
// step boundary. The caller fills in the RNG seed.
func (p *Plant) Snapshot() *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:      telemetry.SnapshotVersion,
		Step:         p.tick,
		TotalArea:    p.totalArea,
		OccupiedArea: p.occupiedArea,
		LAI:          p.lai,
		History:      append([]float64(nil), p.history...),
	}

	query := p.filter.Query()
	for query.Next() {
		seg, growth, canopy, _ := query.Get()
		state := telemetry.BranchState{
			ID:         query.Entity().ID(),
			X:          seg.X,
			Y:          seg.Y,
			Angle:      seg.Angle,
			Length:     seg.Length,
			Generation: int(growth.Generation),
			Status:     growth.Status.String(),
		}
		for i := range canopy.Nodes {
			node := &canopy.Nodes[i]
			for j := uint8(0); j < node.Count; j++ {
				leaf := &node.Leaves[j]
				state.Leaves = append(state.Leaves, telemetry.LeafState{
					X:         leaf.X,
					Y:         leaf.Y,
					Age:       int(leaf.Age),
					LightGain: leaf.LightGain,
				})
			}
		}
		snap.Branches = append(snap.Branches, state)
	}
	return snap
}

func (p *Plant) isMain(e ecs.Entity) bool {
	for _, m := range p.mains {
		if m == e {
			return true
		}
	}
	return false
}
