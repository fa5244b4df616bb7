package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/bush/components"
)

func testLightParams() LightParams {
	return LightParams{
		Incident:        1000.0,
		ExtinctionCoeff: 0.5,
		Efficiency:      0.3,
		TotalArea:       3.0,
	}
}

func addLeafyBranch(mapper *ecs.Map4[components.Segment, components.Growth, components.Canopy, components.Offshoots], leaves ...components.Leaf) ecs.Entity {
	canopy := components.Canopy{Nodes: []components.LeafNode{{}}}
	for _, l := range leaves {
		canopy.Nodes[0].Add(l)
	}
	seg := components.Segment{}
	growth := components.Growth{}
	off := components.Offshoots{}
	return mapper.NewEntity(&seg, &growth, &canopy, &off)
}

func TestSingleMatureLeafGain(t *testing.T) {
	world := ecs.NewWorld()
	system := NewLightSystem(world)
	mapper := ecs.NewMap4[components.Segment, components.Growth, components.Canopy, components.Offshoots](world)

	// Age 10 puts the structure complexity factor at its 1.0 ceiling.
	e := addLeafyBranch(mapper, components.Leaf{Area: 0.01, Age: 10})

	p := testLightParams()
	lai, total := system.Update(p)

	wantLAI := 0.01 / 3.0
	if math.Abs(lai-wantLAI) > 1e-12 {
		t.Errorf("LAI = %v, want %v", lai, wantLAI)
	}

	wantGain := p.Incident * (1.0 - math.Exp(-p.ExtinctionCoeff*wantLAI)) * p.Efficiency
	if math.Abs(total-wantGain) > 1e-9 {
		t.Errorf("total gain = %v, want %v", total, wantGain)
	}

	_, _, canopy, _ := mapper.Get(e)
	if got := canopy.Nodes[0].Leaves[0].LightGain; math.Abs(got-wantGain) > 1e-9 {
		t.Errorf("stored leaf gain = %v, want %v", got, wantGain)
	}
}

func TestNewLeafContributesAreaButNoGain(t *testing.T) {
	world := ecs.NewWorld()
	system := NewLightSystem(world)
	mapper := ecs.NewMap4[components.Segment, components.Growth, components.Canopy, components.Offshoots](world)

	addLeafyBranch(mapper, components.Leaf{Area: 0.01, Age: 0})

	lai, total := system.Update(testLightParams())
	if lai == 0 {
		t.Error("age-zero leaf must still count toward LAI")
	}
	if total != 0 {
		t.Errorf("total gain = %v, want 0 for an age-zero canopy", total)
	}
}

func TestLAIAggregatesAcrossBranches(t *testing.T) {
	world := ecs.NewWorld()
	system := NewLightSystem(world)
	mapper := ecs.NewMap4[components.Segment, components.Growth, components.Canopy, components.Offshoots](world)

	addLeafyBranch(mapper, components.Leaf{Area: 0.01, Age: 5}, components.Leaf{Area: 0.01, Age: 5})
	addLeafyBranch(mapper, components.Leaf{Area: 0.01, Age: 5})

	lai, _ := system.Update(testLightParams())
	wantLAI := 3 * 0.01 / 3.0
	if math.Abs(lai-wantLAI) > 1e-12 {
		t.Errorf("LAI = %v, want %v", lai, wantLAI)
	}
}

func TestComplexityScalesGain(t *testing.T) {
	world := ecs.NewWorld()
	system := NewLightSystem(world)
	mapper := ecs.NewMap4[components.Segment, components.Growth, components.Canopy, components.Offshoots](world)

	// Same area, different ages: the younger leaf earns half the gain of
	// the older one while both intercept the same canopy light.
	e := addLeafyBranch(mapper,
		components.Leaf{Area: 0.01, Age: 2},
		components.Leaf{Area: 0.01, Age: 4},
	)

	system.Update(testLightParams())

	_, _, canopy, _ := mapper.Get(e)
	young := canopy.Nodes[0].Leaves[0].LightGain
	old := canopy.Nodes[0].Leaves[1].LightGain
	if young <= 0 || old <= 0 {
		t.Fatalf("gains = %v, %v, want positive", young, old)
	}
	if math.Abs(old-2*young) > 1e-9 {
		t.Errorf("gain ratio = %v, want age-4 leaf to earn twice the age-2 leaf", old/young)
	}
}
