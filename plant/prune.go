package plant

import "github.com/mlange-42/ark/ecs"

// PruneSubtree removes the given sub-branch and its whole subtree,
// releasing their area units back to the budget. Main branches are
// refused. Returns the number of branches removed.
//
// Pruning never revives a stopped branch: surviving statuses stay as
// they are, and a parent whose children were removed does not spawn
// again (Offshoots.Spawned stays set).
func (p *Plant) PruneSubtree(e ecs.Entity) int {
	if p.isMain(e) || !p.world.Alive(e) || !p.offMap.Has(e) {
		return 0
	}

	// Collect the subtree before mutating anything.
	var doomed []ecs.Entity
	stack := []ecs.Entity{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		doomed = append(doomed, cur)
		off := p.offMap.Get(cur)
		stack = append(stack, off.Children...)
	}

	p.detachFromParent(e)

	for _, d := range doomed {
		p.mapper.Remove(d)
	}

	p.occupiedArea -= p.branchArea * float64(len(doomed))
	if p.occupiedArea < 0 {
		p.occupiedArea = 0
	}
	return len(doomed)
}

// detachFromParent removes e from its parent's child list. The query
// runs to completion; a branch has at most one parent.
func (p *Plant) detachFromParent(e ecs.Entity) {
	query := p.filter.Query()
	for query.Next() {
		_, _, _, off := query.Get()
		for i, child := range off.Children {
			if child == e {
				off.Children = append(off.Children[:i], off.Children[i+1:]...)
				break
			}
		}
	}
}
