// Package plant assembles the branch arena, the growth and light systems
// and the area budget into one simulated plant.
package plant

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/bush/components"
	"github.com/pthm-cable/bush/config"
	"github.com/pthm-cable/bush/systems"
)

// areaEps absorbs float drift in the occupied-area counter.
const areaEps = 1e-9

// Plant owns the branch world and is the single authority over the
// growing-area budget and main-branch spacing. All mutation of the
// occupied-area counter goes through its admission methods.
type Plant struct {
	world  *ecs.World
	mapper *ecs.Map4[components.Segment, components.Growth, components.Canopy, components.Offshoots]
	filter ecs.Filter4[components.Segment, components.Growth, components.Canopy, components.Offshoots]
	offMap *ecs.Map[components.Offshoots]

	growth *systems.GrowthSystem
	light  *systems.LightSystem

	cfg *config.Config

	totalArea    float64
	branchArea   float64
	occupiedArea float64

	mains      []ecs.Entity
	mainAngles []float64

	history []float64
	lai     float64
	tick    int
}

// StepResult reports one atomic simulation step.
type StepResult struct {
	Report         systems.GrowthReport
	LAI            float64
	Photosynthesis float64
}

// New creates an empty plant (no branches yet) from a validated config.
func New(cfg *config.Config) *Plant {
	world := ecs.NewWorld()
	return &Plant{
		world:      world,
		mapper:     ecs.NewMap4[components.Segment, components.Growth, components.Canopy, components.Offshoots](world),
		filter:     *ecs.NewFilter4[components.Segment, components.Growth, components.Canopy, components.Offshoots](world),
		offMap:     ecs.NewMap[components.Offshoots](world),
		growth:     systems.NewGrowthSystem(world),
		light:      systems.NewLightSystem(world),
		cfg:        cfg,
		totalArea:  cfg.Plant.TotalArea,
		branchArea: cfg.Branch.Area,
	}
}

// AddMainBranch proposes a new main branch from the plant center at the
// given angle. Rejection is a normal outcome: either the area budget has
// no room for one branch unit, or the angle sits within π/6 of an
// existing main branch.
func (p *Plant) AddMainBranch(angle float64) bool {
	if p.occupiedArea+p.branchArea > p.totalArea+areaEps {
		return false
	}
	for _, a := range p.mainAngles {
		if angularDistance(angle, a) <= math.Pi/6 {
			return false
		}
	}

	seg := components.Segment{Angle: angle}
	growth := components.Growth{}
	canopy := components.Canopy{}
	off := components.Offshoots{}
	e := p.mapper.NewEntity(&seg, &growth, &canopy, &off)

	p.occupiedArea += p.branchArea
	p.mains = append(p.mains, e)
	p.mainAngles = append(p.mainAngles, angle)
	return true
}

// admitOffshoots decides whether the budget can hold two more branch
// units, claiming them on acceptance. Passed into the growth system so
// the counter stays under the plant's control.
func (p *Plant) admitOffshoots() bool {
	if p.occupiedArea+2*p.branchArea > p.totalArea+areaEps {
		return false
	}
	p.occupiedArea += 2 * p.branchArea
	return true
}

// Step runs one atomic simulation step: the growth phase over every
// branch, then the light aggregation phase over the post-growth canopy.
func (p *Plant) Step() StepResult {
	report := p.growth.Update(p.growthParams(), p.admitOffshoots)
	lai, gain := p.light.Update(p.lightParams())

	p.lai = lai
	p.history = append(p.history, gain)
	p.tick++

	return StepResult{Report: report, LAI: lai, Photosynthesis: gain}
}

func (p *Plant) growthParams() systems.GrowthParams {
	return systems.GrowthParams{
		GrowthRate:         p.cfg.Branch.GrowthRate,
		MaxLength:          p.cfg.Branch.MaxLength,
		BranchingThreshold: p.cfg.Branch.BranchingThreshold,
		MaxGeneration:      int32(p.cfg.Branch.MaxGeneration),
		NodeSpacing:        p.cfg.Branch.NodeSpacing,
		MaxLeavesPerNode:   p.cfg.Leaf.MaxPerNode,
		MinBranchSpacing:   p.cfg.Branch.MinSpacing,
		LeafArea:           p.cfg.Leaf.Area,
	}
}

func (p *Plant) lightParams() systems.LightParams {
	return systems.LightParams{
		Incident:        p.cfg.Light.Incident,
		ExtinctionCoeff: p.cfg.Light.ExtinctionCoeff,
		Efficiency:      p.cfg.Leaf.PhotosynthesisEfficiency,
		TotalArea:       p.cfg.Plant.TotalArea,
	}
}

// History returns the per-step total photosynthesis series, one entry
// per completed step.
func (p *Plant) History() []float64 {
	return p.history
}

// LAI returns the leaf area index computed by the last step.
func (p *Plant) LAI() float64 {
	return p.lai
}

// Tick returns the number of completed steps.
func (p *Plant) Tick() int {
	return p.tick
}

// TotalArea returns the growing-area budget.
func (p *Plant) TotalArea() float64 {
	return p.totalArea
}

// OccupiedArea returns the claimed portion of the area budget.
func (p *Plant) OccupiedArea() float64 {
	return p.occupiedArea
}

// MainBranchCount returns the number of admitted main branches.
func (p *Plant) MainBranchCount() int {
	return len(p.mains)
}

// angularDistance returns the circular distance between two angles,
// wrapped into [0, π].
func angularDistance(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d < -math.Pi {
		d += 2 * math.Pi
	}
	return math.Abs(d)
}
