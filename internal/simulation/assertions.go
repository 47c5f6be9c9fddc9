package simulation

import (
	"testing"

	"github.com/nvandessel/sandpile/internal/constants"
	"github.com/nvandessel/sandpile/internal/lattice"
)

// AssertAlwaysStable asserts that the lattice was stable after every drop.
func AssertAlwaysStable(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, s := range result.Steps {
		if !s.Stable {
			t.Errorf("AssertAlwaysStable: %s: lattice unstable after drop %d", result.Name, s.Index)
		}
	}
	if !result.Final.Stable() {
		t.Errorf("AssertAlwaysStable: %s: final lattice unstable", result.Name)
	}
}

// AssertMassAccounted asserts that every drop changed the total by exactly
// one grain in minus the grains lost at the boundary, and that no drop lost
// more grains than its topples shed.
func AssertMassAccounted(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, s := range result.Steps {
		if want := s.MassBefore + 1 - s.GrainsLost; s.MassAfter != want {
			t.Errorf("AssertMassAccounted: %s: drop %d: mass %d -> %d, want %d (lost %d)",
				result.Name, s.Index, s.MassBefore, s.MassAfter, want, s.GrainsLost)
		}
		if s.GrainsLost > constants.GrainsPerTopple*s.Topples {
			t.Errorf("AssertMassAccounted: %s: drop %d: lost %d grains from %d topples",
				result.Name, s.Index, s.GrainsLost, s.Topples)
		}
	}
}

// AssertHistoryDeduplicated asserts that no two consecutive history entries
// are identical and that the newest entry matches the final lattice.
func AssertHistoryDeduplicated(t *testing.T, result SimulationResult) {
	t.Helper()
	h := result.History
	if len(h) == 0 {
		t.Fatalf("AssertHistoryDeduplicated: %s: empty history", result.Name)
	}
	for i := 1; i < len(h); i++ {
		n, err := lattice.CountDifferences(h[i-1], h[i])
		if err != nil {
			t.Fatalf("AssertHistoryDeduplicated: %s: %v", result.Name, err)
		}
		if n == 0 {
			t.Errorf("AssertHistoryDeduplicated: %s: history[%d] repeats history[%d]", result.Name, i, i-1)
		}
	}
}

// AssertSameHistory asserts that two runs recorded identical histories.
func AssertSameHistory(t *testing.T, a, b SimulationResult) {
	t.Helper()
	if len(a.History) != len(b.History) {
		t.Fatalf("AssertSameHistory: %s has %d entries, %s has %d",
			a.Name, len(a.History), b.Name, len(b.History))
	}
	for i := range a.History {
		if !a.History[i].Equal(b.History[i]) {
			t.Fatalf("AssertSameHistory: entry %d differs between %s and %s", i, a.Name, b.Name)
		}
	}
}

// AssertFinalGrid asserts that the final lattice equals want (want[x][y]).
func AssertFinalGrid(t *testing.T, result SimulationResult, want [][]int) {
	t.Helper()
	wl, err := lattice.FromRows(want)
	if err != nil {
		t.Fatalf("AssertFinalGrid: %s: %v", result.Name, err)
	}
	n, err := lattice.CountDifferences(result.Final, wl)
	if err != nil {
		t.Fatalf("AssertFinalGrid: %s: %v", result.Name, err)
	}
	if n != 0 {
		t.Errorf("AssertFinalGrid: %s: %d cells differ: got %v, want %v", result.Name, n, result.Final.Rows(), want)
	}
}
