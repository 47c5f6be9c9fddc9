// Package lattice implements the square grid of sandpile heights.
//
// Heights are stored row-major in a flat slice: the cell at (x, y) lives at
// index x*size+y, so x selects the row and y the column. Every accessor is
// bounds checked and a failed call leaves the lattice untouched.
package lattice

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/nvandessel/sandpile/internal/constants"
)

var (
	// ErrInvalidDimension is returned when a lattice is created with size <= 0.
	ErrInvalidDimension = errors.New("invalid lattice dimension")

	// ErrOutOfBounds is returned for coordinates outside [0, size).
	ErrOutOfBounds = errors.New("coordinate out of bounds")

	// ErrSizeMismatch is returned when comparing grids of different sizes.
	ErrSizeMismatch = errors.New("lattice size mismatch")

	// ErrNegativeHeight is returned when Set is given a negative height.
	ErrNegativeHeight = errors.New("negative height")
)

// Grid is a read-only view over a square grid of heights.
// Both *Lattice and Snapshot satisfy it.
type Grid interface {
	Size() int
	Get(x, y int) (int, error)
	cells() []int
}

// Lattice is a mutable size×size grid of non-negative heights.
// Heights may exceed the critical height while a cascade is being resolved;
// Set does not enforce stability.
type Lattice struct {
	size    int
	heights []int
}

// New allocates a size×size lattice and fills each cell with an independent
// draw in [0, CriticalHeight) from rng.
func New(size int, rng *rand.Rand) (*Lattice, error) {
	l, err := NewZero(size)
	if err != nil {
		return nil, err
	}
	for i := range l.heights {
		l.heights[i] = rng.Intn(constants.CriticalHeight)
	}
	return l, nil
}

// NewRandom is New with a private generator seeded from seed.
// The same seed always yields the same grid.
func NewRandom(size int, seed int64) (*Lattice, error) {
	return New(size, rand.New(rand.NewSource(seed)))
}

// NewZero allocates a size×size lattice with every height set to zero.
func NewZero(size int) (*Lattice, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size %d: %w", size, ErrInvalidDimension)
	}
	return &Lattice{
		size:    size,
		heights: make([]int, size*size),
	}, nil
}

// FromRows builds a lattice from a square row-major matrix, where rows[x][y]
// is the height at (x, y).
func FromRows(rows [][]int) (*Lattice, error) {
	l, err := NewZero(len(rows))
	if err != nil {
		return nil, err
	}
	for x, row := range rows {
		if len(row) != l.size {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", x, len(row), l.size, ErrInvalidDimension)
		}
		for y, h := range row {
			if h < 0 {
				return nil, fmt.Errorf("(%d,%d)=%d: %w", x, y, h, ErrNegativeHeight)
			}
			l.heights[x*l.size+y] = h
		}
	}
	return l, nil
}

// Size returns the side length of the lattice.
func (l *Lattice) Size() int { return l.size }

// InBounds reports whether (x, y) addresses a cell of the lattice.
func (l *Lattice) InBounds(x, y int) bool {
	return x >= 0 && x < l.size && y >= 0 && y < l.size
}

// Get returns the height at (x, y).
func (l *Lattice) Get(x, y int) (int, error) {
	if !l.InBounds(x, y) {
		return 0, outOfBounds(x, y, l.size)
	}
	return l.heights[x*l.size+y], nil
}

// Set writes the height at (x, y). Values at or above the critical height are
// accepted; resolving them is the caller's job.
func (l *Lattice) Set(x, y, value int) error {
	if !l.InBounds(x, y) {
		return outOfBounds(x, y, l.size)
	}
	if value < 0 {
		return fmt.Errorf("(%d,%d)=%d: %w", x, y, value, ErrNegativeHeight)
	}
	l.heights[x*l.size+y] = value
	return nil
}

// IsStable reports whether the height at (x, y) is below the critical height.
func (l *Lattice) IsStable(x, y int) (bool, error) {
	h, err := l.Get(x, y)
	if err != nil {
		return false, err
	}
	return h < constants.CriticalHeight, nil
}

// Stable reports whether every cell is below the critical height.
func (l *Lattice) Stable() bool {
	for _, h := range l.heights {
		if h >= constants.CriticalHeight {
			return false
		}
	}
	return true
}

// Sum returns the total number of grains on the lattice.
func (l *Lattice) Sum() int {
	return sum(l.heights)
}

// Snapshot returns an independent copy of the current heights. Later
// mutations of l are never visible through the snapshot.
func (l *Lattice) Snapshot() Snapshot {
	return Snapshot{size: l.size, heights: copyCells(l.heights)}
}

// CountDifferences returns the number of cells whose heights differ between
// l and other.
func (l *Lattice) CountDifferences(other Grid) (int, error) {
	return CountDifferences(l, other)
}

// Rows returns a row-major copy of the heights, rows[x][y] = Get(x, y).
func (l *Lattice) Rows() [][]int {
	return toRows(l.size, l.heights)
}

func (l *Lattice) cells() []int { return l.heights }

// CountDifferences returns the number of coordinates at which a and b hold
// different heights. Grids of different sizes yield ErrSizeMismatch.
func CountDifferences(a, b Grid) (int, error) {
	if a.Size() != b.Size() {
		return 0, fmt.Errorf("%d vs %d: %w", a.Size(), b.Size(), ErrSizeMismatch)
	}
	ac, bc := a.cells(), b.cells()
	n := 0
	for i := range ac {
		if ac[i] != bc[i] {
			n++
		}
	}
	return n, nil
}

func outOfBounds(x, y, size int) error {
	return fmt.Errorf("(%d,%d) on %dx%d lattice: %w", x, y, size, size, ErrOutOfBounds)
}

func copyCells(src []int) []int {
	dst := make([]int, len(src))
	copy(dst, src)
	return dst
}

func sum(cells []int) int {
	total := 0
	for _, h := range cells {
		total += h
	}
	return total
}

func toRows(size int, cells []int) [][]int {
	rows := make([][]int, size)
	for x := range rows {
		rows[x] = copyCells(cells[x*size : (x+1)*size])
	}
	return rows
}
