package simulation

import (
	"testing"

	"github.com/nvandessel/sandpile/internal/lattice"
	"github.com/nvandessel/sandpile/internal/sandpile"
)

// Runner orchestrates simulation experiments against a real engine.
type Runner struct {
	t *testing.T
}

// NewRunner creates a simulation runner bound to t.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{t: t}
}

// Run executes the scenario and returns the collected results.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()

	// Phase 1: Build the engine.
	e := r.newEngine(scenario)

	// Phase 2: Drop grains.
	n := scenario.Steps
	if scenario.Drops != nil {
		n = len(scenario.Drops)
	}
	steps := make([]StepResult, 0, n)
	for i := 0; i < n; i++ {
		if scenario.BeforeStep != nil {
			scenario.BeforeStep(i, e)
		}
		steps = append(steps, r.runStep(e, i, scenario))
	}

	return SimulationResult{
		Name:    scenario.Name,
		Steps:   steps,
		History: e.History(),
		Final:   e.Lattice().Snapshot(),
		Engine:  e,
	}
}

func (r *Runner) newEngine(scenario Scenario) *sandpile.Engine {
	r.t.Helper()

	if scenario.Initial != nil {
		l, err := lattice.FromRows(scenario.Initial)
		if err != nil {
			r.t.Fatalf("Run(%s): initial grid: %v", scenario.Name, err)
		}
		return sandpile.NewFromLattice(l, sandpile.WithSeed(scenario.Seed))
	}

	e, err := sandpile.New(scenario.Size, sandpile.WithSeed(scenario.Seed))
	if err != nil {
		r.t.Fatalf("Run(%s): %v", scenario.Name, err)
	}
	return e
}

func (r *Runner) runStep(e *sandpile.Engine, i int, scenario Scenario) StepResult {
	r.t.Helper()

	sr := StepResult{Index: i, MassBefore: e.Lattice().Sum()}
	if scenario.Drops != nil {
		d := scenario.Drops[i]
		av, err := e.Topple(d.X, d.Y)
		if err != nil {
			r.t.Fatalf("Run(%s): drop %d at (%d,%d): %v", scenario.Name, i, d.X, d.Y, err)
		}
		sr.Topples = av.Topples
		sr.GrainsLost = av.GrainsLost
	} else {
		stats, err := e.RunWithStats(1)
		if err != nil {
			r.t.Fatalf("Run(%s): step %d: %v", scenario.Name, i, err)
		}
		sr.Topples = stats.Topples
		sr.GrainsLost = stats.GrainsLost
	}
	sr.MassAfter = e.Lattice().Sum()
	sr.Stable = e.Lattice().Stable()
	return sr
}
