// Package components defines ECS components for the branch arena.
//
// Each branch of the plant is one entity carrying Segment, Growth, Canopy
// and Offshoots. The ECS world is the flat, identifier-keyed branch table;
// whole-tree scans (area sums, proximity counts, LAI) are plain filter
// queries over it.
package components

import (
	"math"

	"github.com/mlange-42/ark/ecs"
)

// Segment is the geometric line of a branch: a fixed start point and
// direction, and the current length. Start and Angle never change after
// creation; Length only grows.
type Segment struct {
	X, Y   float64 // Start position (m)
	Angle  float64 // Direction (radians)
	Length float64 // Current length (m)
}

// PointAt returns the point at the given distance along the branch.
func (s *Segment) PointAt(dist float64) (float64, float64) {
	return s.X + dist*math.Cos(s.Angle), s.Y + dist*math.Sin(s.Angle)
}

// End returns the branch's current end-point.
func (s *Segment) End() (float64, float64) {
	return s.PointAt(s.Length)
}

// Growth holds the branch's place in the tree and its status state machine.
type Growth struct {
	Generation int32 // 0 = main branch
	Status     BranchStatus
}

// Leaf is a point light-harvesting unit attached to a branch node.
// Age advances once per step; LightGain is recomputed each step by the
// light system from the whole-plant LAI.
type Leaf struct {
	X, Y      float64
	Area      float64
	Age       int32
	LightGain float64
}

// Complexity returns the structure complexity factor derived from age.
func (l *Leaf) Complexity() float64 {
	return math.Min(1.0, 0.1*float64(l.Age))
}

// LeafSlots is the fixed per-node leaf capacity.
// Config validation caps max_per_node at this value.
const LeafSlots = 8

// LeafNode holds the leaves attached at one node position.
// Using a fixed-size array for better cache locality.
type LeafNode struct {
	Leaves [LeafSlots]Leaf
	Count  uint8
}

// Add appends a leaf to the node. Returns false when the node is full.
func (n *LeafNode) Add(l Leaf) bool {
	if n.Count >= LeafSlots {
		return false
	}
	n.Leaves[n.Count] = l
	n.Count++
	return true
}

// Canopy is the ordered mapping from node index to the leaves at that
// node. Nodes[i] sits at distance i*node_spacing from the branch start.
type Canopy struct {
	Nodes []LeafNode
}

// LeafCount returns the total number of leaves on the branch.
func (c *Canopy) LeafCount() int {
	total := 0
	for i := range c.Nodes {
		total += int(c.Nodes[i].Count)
	}
	return total
}

// Offshoots tracks a branch's sub-branches. A branch spawns at most once
// in its lifetime; Spawned stays set even if the pruning collaborator
// later removes the children.
type Offshoots struct {
	Children []ecs.Entity // empty or two, in creation order
	Spawned  bool
}
