package simulation

import (
	"github.com/nvandessel/sandpile/internal/lattice"
	"github.com/nvandessel/sandpile/internal/sandpile"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name string

	// Size and Seed build a random lattice. Ignored when Initial is set,
	// except that Seed still drives random drops.
	Size int
	Seed int64

	// Initial, when non-nil, is the starting grid (Initial[x][y]).
	Initial [][]int

	// Steps is the number of random drops. Ignored when Drops is set.
	Steps int

	// Drops, when non-nil, lists explicit drop sites applied with Topple.
	// Explicit drops do not extend the engine's history.
	Drops []Site

	// BeforeStep, when non-nil, is called before each drop executes.
	BeforeStep func(stepIndex int, e *sandpile.Engine)
}

// Site addresses one lattice cell.
type Site struct {
	X, Y int
}

// StepResult captures the outcome of a single drop.
type StepResult struct {
	Index      int
	Topples    int
	GrainsLost int
	MassBefore int
	MassAfter  int
	Stable     bool
}

// SimulationResult captures every drop and the engine's final state.
type SimulationResult struct {
	Name    string
	Steps   []StepResult
	History []lattice.Snapshot
	Final   lattice.Snapshot
	Engine  *sandpile.Engine
}

// TotalTopples sums topples over all drops.
func (r SimulationResult) TotalTopples() int {
	total := 0
	for _, s := range r.Steps {
		total += s.Topples
	}
	return total
}
