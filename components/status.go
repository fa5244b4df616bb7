package components

// BranchStatus is the branch growth state machine. StatusGrowing is the
// initial state; every other state is terminal and sticky.
type BranchStatus uint8

const (
	StatusGrowing BranchStatus = iota
	StatusMaxLength
	StatusSpaceConstraint
	StatusMaxGeneration
	StatusOvercrowded
)

// Terminal reports whether the status is a stopped state.
func (s BranchStatus) Terminal() bool {
	return s != StatusGrowing
}

// String returns the status name used in snapshots and telemetry.
func (s BranchStatus) String() string {
	switch s {
	case StatusGrowing:
		return "growing"
	case StatusMaxLength:
		return "max_length"
	case StatusSpaceConstraint:
		return "space_constraint"
	case StatusMaxGeneration:
		return "max_generation"
	case StatusOvercrowded:
		return "overcrowded"
	}
	return "unknown"
}

// Stop transitions the branch into a terminal state. Attempts to change
// an already-terminal status are no-ops; Stop reports whether the
// transition was applied.
func (g *Growth) Stop(to BranchStatus) bool {
	if g.Status.Terminal() || !to.Terminal() {
		return false
	}
	g.Status = to
	return true
}
