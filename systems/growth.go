// Package systems implements the per-step phases of the plant simulation:
// branch growth and light aggregation.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/bush/components"
)

// lengthEps absorbs float drift when comparing accumulated lengths
// against max_length and node positions.
const lengthEps = 1e-9

// GrowthParams holds the growth-phase parameters for one step.
type GrowthParams struct {
	GrowthRate         float64
	MaxLength          float64
	BranchingThreshold float64
	MaxGeneration      int32
	NodeSpacing        float64
	MaxLeavesPerNode   int
	MinBranchSpacing   float64
	LeafArea           float64
}

// GrowthReport summarizes what one growth phase did, for telemetry.
type GrowthReport struct {
	LeavesAdded       int
	BranchesSpawned   int
	OffshootsRefused  int // spawn attempts rejected by the area budget
	StoppedMaxLength  int
	StoppedMaxGen     int
	StoppedOvercrowd  int
	StoppedSpaceLimit int
}

// GrowthSystem runs the growth phase over every branch in the arena.
//
// A step is split into three passes so results do not depend on branch
// iteration order: all branches elongate and place leaves first, then
// end-points are collected, then spawn decisions are evaluated against
// that shared end-point set. Entities for new sub-branches are created
// after the query completes; they take their first grow call on the
// next step.
type GrowthSystem struct {
	filter ecs.Filter3[components.Segment, components.Growth, components.Canopy]
	mapper *ecs.Map4[components.Segment, components.Growth, components.Canopy, components.Offshoots]
	offMap *ecs.Map[components.Offshoots]
}

// NewGrowthSystem creates a growth system bound to the given world.
func NewGrowthSystem(w *ecs.World) *GrowthSystem {
	return &GrowthSystem{
		filter: *ecs.NewFilter3[components.Segment, components.Growth, components.Canopy](w),
		mapper: ecs.NewMap4[components.Segment, components.Growth, components.Canopy, components.Offshoots](w),
		offMap: ecs.NewMap[components.Offshoots](w),
	}
}

// spawnRequest queues a pair of sub-branches for creation after the query.
type spawnRequest struct {
	parent     ecs.Entity
	x, y       float64
	angle      float64
	generation int32
}

// Update executes one growth phase. admit is the plant's area-budget
// admission for two sub-branches; it is consulted once per eligible
// branch and owns the occupied-area accounting.
func (s *GrowthSystem) Update(p GrowthParams, admit func() bool) GrowthReport {
	var report GrowthReport

	// Pass 1: age every leaf on every branch, then elongate and place
	// leaves on branches that are still growing.
	query := s.filter.Query()
	for query.Next() {
		seg, growth, canopy := query.Get()

		ageLeaves(canopy)

		if growth.Status != components.StatusGrowing {
			continue
		}

		seg.Length += p.GrowthRate
		if seg.Length >= p.MaxLength-lengthEps {
			seg.Length = p.MaxLength
			growth.Stop(components.StatusMaxLength)
			report.StoppedMaxLength++
		}

		report.LeavesAdded += placeLeaves(seg, canopy, p)
	}

	// Pass 2: collect post-elongation end-points of every branch. The
	// crowding check below sees the same shared set regardless of order.
	type endpoint struct{ x, y float64 }
	var ends []endpoint
	query = s.filter.Query()
	for query.Next() {
		seg, _, _ := query.Get()
		ex, ey := seg.End()
		ends = append(ends, endpoint{ex, ey})
	}

	// Pass 3: spawn evaluation. Structural changes are collected and
	// applied after the query completes.
	var spawns []spawnRequest
	idx := -1
	query = s.filter.Query()
	for query.Next() {
		idx++
		seg, growth, _ := query.Get()
		entity := query.Entity()

		if growth.Status != components.StatusGrowing {
			continue
		}
		off := s.offMap.Get(entity)
		if off.Spawned {
			continue
		}
		if seg.Length < p.BranchingThreshold-lengthEps {
			continue
		}

		if growth.Generation >= p.MaxGeneration {
			growth.Stop(components.StatusMaxGeneration)
			report.StoppedMaxGen++
			continue
		}

		ex, ey := seg.End()
		neighbors := 0
		for i, e := range ends {
			if i == idx {
				continue
			}
			if math.Hypot(e.x-ex, e.y-ey) < p.MinBranchSpacing {
				neighbors++
			}
		}
		if neighbors >= 2 {
			growth.Stop(components.StatusOvercrowded)
			report.StoppedOvercrowd++
			continue
		}

		if !admit() {
			growth.Stop(components.StatusSpaceConstraint)
			report.StoppedSpaceLimit++
			report.OffshootsRefused++
			continue
		}

		spawns = append(spawns, spawnRequest{
			parent:     entity,
			x:          ex,
			y:          ey,
			angle:      seg.Angle,
			generation: growth.Generation,
		})
	}

	// Apply queued spawns: two children per request, angled +π/4 and −π/6
	// off the parent direction, zero length, growing.
	for _, req := range spawns {
		children := [2]ecs.Entity{}
		for i, da := range [2]float64{math.Pi / 4, -math.Pi / 6} {
			seg := components.Segment{X: req.x, Y: req.y, Angle: req.angle + da}
			growth := components.Growth{Generation: req.generation + 1, Status: components.StatusGrowing}
			canopy := components.Canopy{}
			off := components.Offshoots{}
			children[i] = s.mapper.NewEntity(&seg, &growth, &canopy, &off)
		}
		parentOff := s.offMap.Get(req.parent)
		parentOff.Children = append(parentOff.Children, children[0], children[1])
		parentOff.Spawned = true
		report.BranchesSpawned += 2
	}

	return report
}

// ageLeaves advances every leaf on the branch by one step. Leaves age on
// stopped branches too; only new growth requires StatusGrowing.
func ageLeaves(canopy *components.Canopy) {
	for i := range canopy.Nodes {
		node := &canopy.Nodes[i]
		for j := uint8(0); j < node.Count; j++ {
			node.Leaves[j].Age++
		}
	}
}

// placeLeaves adds one leaf to every under-filled node reachable within
// the branch's current length. Returns the number of leaves added.
func placeLeaves(seg *components.Segment, canopy *components.Canopy, p GrowthParams) int {
	nodeCount := int(math.Floor((seg.Length+lengthEps)/p.NodeSpacing)) + 1
	for len(canopy.Nodes) < nodeCount {
		canopy.Nodes = append(canopy.Nodes, components.LeafNode{})
	}

	added := 0
	for idx := 0; idx < nodeCount; idx++ {
		node := &canopy.Nodes[idx]
		if int(node.Count) >= p.MaxLeavesPerNode {
			continue
		}
		x, y := seg.PointAt(float64(idx) * p.NodeSpacing)
		if node.Add(components.Leaf{X: x, Y: y, Area: p.LeafArea}) {
			added++
		}
	}
	return added
}
