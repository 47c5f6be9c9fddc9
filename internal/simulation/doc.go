// Package simulation provides a scenario test harness for validating the
// emergent dynamics of the sandpile engine.
//
// The harness exercises the real Engine and Lattice, no mocks. Scenarios
// describe a lattice (random from a seed, or explicit rows) and either a
// number of random drops or an explicit list of drop sites. The runner
// records per-drop mass and stability so property assertions can be checked
// across the whole run.
//
// Usage:
//
//	func TestMassAccounting(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:  "mass",
//	        Size:  16,
//	        Seed:  7,
//	        Steps: 500,
//	    })
//	    simulation.AssertMassAccounted(t, result)
//	}
package simulation
