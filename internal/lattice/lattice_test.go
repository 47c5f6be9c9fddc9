package lattice

import (
	"errors"
	"testing"

	"github.com/nvandessel/sandpile/internal/constants"
)

// mustZero is a test helper that builds an all-zero lattice and fails on error.
func mustZero(t *testing.T, size int) *Lattice {
	t.Helper()
	l, err := NewZero(size)
	if err != nil {
		t.Fatalf("NewZero(%d): %v", size, err)
	}
	return l
}

func TestNew_InvalidDimension(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"zero", 0},
		{"negative", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewRandom(tt.size, 1)
			if !errors.Is(err, ErrInvalidDimension) {
				t.Fatalf("NewRandom(%d) error = %v, want ErrInvalidDimension", tt.size, err)
			}
			if l != nil {
				t.Errorf("expected nil lattice, got %v", l)
			}
			if _, err := NewZero(tt.size); !errors.Is(err, ErrInvalidDimension) {
				t.Errorf("NewZero(%d) error = %v, want ErrInvalidDimension", tt.size, err)
			}
		})
	}
}

func TestNewRandom_HeightsInRange(t *testing.T) {
	l, err := NewRandom(50, 7)
	if err != nil {
		t.Fatalf("NewRandom: %v", err)
	}
	seen := make(map[int]bool)
	for x := 0; x < l.Size(); x++ {
		for y := 0; y < l.Size(); y++ {
			h, err := l.Get(x, y)
			if err != nil {
				t.Fatalf("Get(%d,%d): %v", x, y, err)
			}
			if h < 0 || h >= constants.CriticalHeight {
				t.Fatalf("height at (%d,%d) = %d, want in [0,%d)", x, y, h, constants.CriticalHeight)
			}
			seen[h] = true
		}
	}
	if len(seen) != constants.CriticalHeight {
		t.Errorf("expected all %d height values on a 50x50 grid, saw %v", constants.CriticalHeight, seen)
	}
	if !l.Stable() {
		t.Error("freshly initialized lattice should be stable")
	}
}

func TestNewRandom_Deterministic(t *testing.T) {
	a, err := NewRandom(20, 42)
	if err != nil {
		t.Fatalf("NewRandom: %v", err)
	}
	b, err := NewRandom(20, 42)
	if err != nil {
		t.Fatalf("NewRandom: %v", err)
	}
	n, err := a.CountDifferences(b)
	if err != nil {
		t.Fatalf("CountDifferences: %v", err)
	}
	if n != 0 {
		t.Errorf("same seed produced %d differing cells", n)
	}

	c, err := NewRandom(20, 43)
	if err != nil {
		t.Fatalf("NewRandom: %v", err)
	}
	if n, _ := a.CountDifferences(c); n == 0 {
		t.Error("different seeds produced identical 20x20 grids")
	}
}

func TestGetSet_OutOfBounds(t *testing.T) {
	l := mustZero(t, 3)
	coords := [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {5, 5}}

	for _, c := range coords {
		if _, err := l.Get(c[0], c[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Get(%d,%d) error = %v, want ErrOutOfBounds", c[0], c[1], err)
		}
		if err := l.Set(c[0], c[1], 2); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Set(%d,%d) error = %v, want ErrOutOfBounds", c[0], c[1], err)
		}
		if _, err := l.IsStable(c[0], c[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("IsStable(%d,%d) error = %v, want ErrOutOfBounds", c[0], c[1], err)
		}
	}
	if l.Sum() != 0 {
		t.Errorf("failed Set calls mutated the lattice: sum = %d", l.Sum())
	}
}

func TestSet_AllowsUnstableRejectsNegative(t *testing.T) {
	l := mustZero(t, 2)

	if err := l.Set(1, 0, 9); err != nil {
		t.Fatalf("Set over threshold: %v", err)
	}
	if h, _ := l.Get(1, 0); h != 9 {
		t.Errorf("Get(1,0) = %d, want 9", h)
	}
	stable, err := l.IsStable(1, 0)
	if err != nil {
		t.Fatalf("IsStable: %v", err)
	}
	if stable {
		t.Error("height 9 reported stable")
	}
	if l.Stable() {
		t.Error("lattice with a 9 reported stable")
	}

	if err := l.Set(1, 0, -1); !errors.Is(err, ErrNegativeHeight) {
		t.Errorf("Set negative error = %v, want ErrNegativeHeight", err)
	}
	if h, _ := l.Get(1, 0); h != 9 {
		t.Errorf("rejected Set changed height to %d", h)
	}
}

func TestIsStable_Threshold(t *testing.T) {
	l := mustZero(t, 1)
	tests := []struct {
		height int
		want   bool
	}{
		{0, true},
		{3, true},
		{4, false},
		{7, false},
	}
	for _, tt := range tests {
		if err := l.Set(0, 0, tt.height); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := l.IsStable(0, 0)
		if err != nil {
			t.Fatalf("IsStable: %v", err)
		}
		if got != tt.want {
			t.Errorf("IsStable with height %d = %v, want %v", tt.height, got, tt.want)
		}
	}
}

func TestSnapshot_Independent(t *testing.T) {
	l := mustZero(t, 2)
	if err := l.Set(0, 1, 2); err != nil {
		t.Fatalf("Set: %v", err)
	}

	snap := l.Snapshot()
	if err := l.Set(0, 1, 3); err != nil {
		t.Fatalf("Set: %v", err)
	}

	h, err := snap.Get(0, 1)
	if err != nil {
		t.Fatalf("snapshot Get: %v", err)
	}
	if h != 2 {
		t.Errorf("snapshot observed later mutation: got %d, want 2", h)
	}

	rows := snap.Rows()
	rows[0][1] = 100
	if h, _ := snap.Get(0, 1); h != 2 {
		t.Errorf("mutating Rows() leaked into snapshot: got %d", h)
	}
}

func TestCountDifferences(t *testing.T) {
	l := mustZero(t, 4)

	n, err := l.CountDifferences(l)
	if err != nil {
		t.Fatalf("CountDifferences self: %v", err)
	}
	if n != 0 {
		t.Errorf("self difference = %d, want 0", n)
	}

	snap := l.Snapshot()
	if err := l.Set(2, 3, 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	n, err = l.CountDifferences(snap)
	if err != nil {
		t.Fatalf("CountDifferences: %v", err)
	}
	if n != 1 {
		t.Errorf("one changed cell gave difference %d, want 1", n)
	}
	if snap.Equal(l) {
		t.Error("snapshot reported equal to changed lattice")
	}
	if !l.Snapshot().Equal(l) {
		t.Error("fresh snapshot not equal to its lattice")
	}

	other := mustZero(t, 5)
	if _, err := l.CountDifferences(other); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("size mismatch error = %v, want ErrSizeMismatch", err)
	}
}

func TestFromRows(t *testing.T) {
	l, err := FromRows([][]int{
		{0, 1},
		{2, 3},
	})
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	if h, _ := l.Get(1, 0); h != 2 {
		t.Errorf("Get(1,0) = %d, want 2 (x selects the row)", h)
	}
	if l.Sum() != 6 {
		t.Errorf("Sum = %d, want 6", l.Sum())
	}

	rows := l.Rows()
	if rows[0][1] != 1 || rows[1][1] != 3 {
		t.Errorf("Rows round trip = %v", rows)
	}

	if _, err := FromRows([][]int{{0, 1}, {2}}); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("ragged rows error = %v, want ErrInvalidDimension", err)
	}
	if _, err := FromRows([][]int{{-1}}); !errors.Is(err, ErrNegativeHeight) {
		t.Errorf("negative height error = %v, want ErrNegativeHeight", err)
	}
	if _, err := FromRows(nil); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("empty rows error = %v, want ErrInvalidDimension", err)
	}
}
