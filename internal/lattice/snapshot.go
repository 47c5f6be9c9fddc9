package lattice

import "github.com/nvandessel/sandpile/internal/constants"

// Snapshot is an immutable copy of a lattice's heights at one point in
// simulated time. The zero value is an empty grid of size 0.
type Snapshot struct {
	size    int
	heights []int
}

// Size returns the side length of the captured lattice.
func (s Snapshot) Size() int { return s.size }

// Get returns the captured height at (x, y).
func (s Snapshot) Get(x, y int) (int, error) {
	if x < 0 || x >= s.size || y < 0 || y >= s.size {
		return 0, outOfBounds(x, y, s.size)
	}
	return s.heights[x*s.size+y], nil
}

// Sum returns the total number of grains captured.
func (s Snapshot) Sum() int { return sum(s.heights) }

// Stable reports whether every captured height is below the critical height.
func (s Snapshot) Stable() bool {
	for _, h := range s.heights {
		if h >= constants.CriticalHeight {
			return false
		}
	}
	return true
}

// Rows returns a row-major copy of the captured heights.
func (s Snapshot) Rows() [][]int { return toRows(s.size, s.heights) }

// Equal reports whether s and other have the same size and heights.
func (s Snapshot) Equal(other Grid) bool {
	n, err := CountDifferences(s, other)
	return err == nil && n == 0
}

func (s Snapshot) cells() []int { return s.heights }
