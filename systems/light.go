package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/bush/components"
)

// LightParams holds the light-phase parameters for one step.
type LightParams struct {
	Incident        float64
	ExtinctionCoeff float64
	Efficiency      float64
	TotalArea       float64
}

// LightSystem computes whole-plant light interception and distributes
// photosynthetic gain to every leaf. Interception follows Beer-Lambert:
// intercepted = incident * (1 - exp(-k * LAI)), with LAI taken over the
// plant's total growing area.
type LightSystem struct {
	filter ecs.Filter1[components.Canopy]
}

// NewLightSystem creates a light system bound to the given world.
func NewLightSystem(w *ecs.World) *LightSystem {
	return &LightSystem{
		filter: *ecs.NewFilter1[components.Canopy](w),
	}
}

// Update runs one light phase over the post-growth canopy. It returns
// the plant LAI and the total photosynthesis gained this step. Per-leaf
// gains are stored on the leaves for snapshots and pruning scores.
func (s *LightSystem) Update(p LightParams) (lai, total float64) {
	leafArea := 0.0
	query := s.filter.Query()
	for query.Next() {
		canopy := query.Get()
		for i := range canopy.Nodes {
			node := &canopy.Nodes[i]
			for j := uint8(0); j < node.Count; j++ {
				leafArea += node.Leaves[j].Area
			}
		}
	}

	lai = leafArea / p.TotalArea
	interception := 1.0 - math.Exp(-p.ExtinctionCoeff*lai)

	query = s.filter.Query()
	for query.Next() {
		canopy := query.Get()
		for i := range canopy.Nodes {
			node := &canopy.Nodes[i]
			for j := uint8(0); j < node.Count; j++ {
				leaf := &node.Leaves[j]
				leaf.LightGain = p.Incident * interception * p.Efficiency * leaf.Complexity()
				total += leaf.LightGain
			}
		}
	}

	return lai, total
}
