// Package sandpile implements the Bak-Tang-Wiesenfeld sandpile engine.
// Grains are dropped on random sites of a lattice; any site reaching the
// critical height topples, sending one grain to each orthogonal neighbor.
// Grains sent past the lattice edge are lost, so every avalanche ends.
package sandpile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/nvandessel/sandpile/internal/constants"
	"github.com/nvandessel/sandpile/internal/lattice"
	"github.com/nvandessel/sandpile/internal/logging"
)

// ErrNegativeSteps is returned by Run when asked for fewer than zero steps.
var ErrNegativeSteps = errors.New("negative step count")

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithSeed makes the run reproducible: the initial grid and every site
// selection are drawn from a generator seeded with seed.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
		e.seeded = true
	}
}

// WithLogger sets the operational logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAvalancheTrace records avalanches to the given trace logger.
// A nil trace is allowed and records nothing.
func WithAvalancheTrace(trace *logging.AvalancheLogger) Option {
	return func(e *Engine) {
		e.trace = trace
	}
}

// Engine owns a lattice, the generator that drives it, and the deduplicated
// history of lattice states. It is not safe for concurrent use.
type Engine struct {
	lattice *lattice.Lattice
	history []lattice.Snapshot
	rng     *rand.Rand
	seed    int64
	seeded  bool
	logger  *slog.Logger
	trace   *logging.AvalancheLogger

	// pending holds grain deliveries not yet applied; reused across topples.
	pending []site
}

type site struct {
	x, y int
}

// New creates an engine over a size×size lattice with heights drawn
// uniformly from [0, CriticalHeight). Without WithSeed the generator is
// seeded from the clock.
func New(size int, opts ...Option) (*Engine, error) {
	e := newEngine(opts)

	l, err := lattice.New(size, e.rng)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	e.adopt(l)
	return e, nil
}

// NewFromLattice creates an engine that takes ownership of l. The caller
// must not mutate l afterwards. The generator is still used for Step.
func NewFromLattice(l *lattice.Lattice, opts ...Option) *Engine {
	e := newEngine(opts)
	e.adopt(l)
	return e
}

func newEngine(opts []Option) *Engine {
	e := &Engine{logger: logging.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	if !e.seeded {
		e.seed = time.Now().UnixNano()
	}
	e.rng = rand.New(rand.NewSource(e.seed))
	return e
}

func (e *Engine) adopt(l *lattice.Lattice) {
	e.lattice = l
	e.history = []lattice.Snapshot{l.Snapshot()}
}

// Seed returns the seed the generator was created with, so an unseeded run
// can still be reproduced.
func (e *Engine) Seed() int64 { return e.seed }

// Size returns the side length of the lattice.
func (e *Engine) Size() int { return e.lattice.Size() }

// Lattice returns the live lattice. Callers may read it between calls to
// Step and Run but must not mutate it.
func (e *Engine) Lattice() *lattice.Lattice { return e.lattice }

// Grid returns a row-major copy of the current heights for rendering.
func (e *Engine) Grid() [][]int { return e.lattice.Rows() }

// History returns the recorded lattice states, oldest first. The first entry
// is the initial state and no two consecutive entries are equal. The
// returned slice is a copy; the snapshots themselves are immutable.
func (e *Engine) History() []lattice.Snapshot {
	out := make([]lattice.Snapshot, len(e.history))
	copy(out, e.history)
	return out
}

// Topple deposits one grain at (x, y) and resolves every topple it triggers
// before returning. Deliveries are processed from an explicit stack rather
// than by recursion, so cascade depth is bounded only by memory. An
// out-of-bounds coordinate returns ErrOutOfBounds without touching the lattice.
func (e *Engine) Topple(x, y int) (Avalanche, error) {
	if !e.lattice.InBounds(x, y) {
		_, err := e.lattice.Get(x, y)
		return Avalanche{}, fmt.Errorf("topple: %w", err)
	}

	av := Avalanche{X: x, Y: y}
	var toppled map[site]struct{}
	size := e.lattice.Size()

	e.pending = append(e.pending[:0], site{x, y})
	for len(e.pending) > 0 {
		s := e.pending[len(e.pending)-1]
		e.pending = e.pending[:len(e.pending)-1]

		h, err := e.lattice.Get(s.x, s.y)
		if err != nil {
			return av, fmt.Errorf("topple (%d,%d): %w", s.x, s.y, err)
		}
		h++
		if h < constants.CriticalHeight {
			if err := e.lattice.Set(s.x, s.y, h); err != nil {
				return av, fmt.Errorf("topple (%d,%d): %w", s.x, s.y, err)
			}
			continue
		}

		// Each delivery adds a single grain, so one subtraction restores
		// the site to below the critical height.
		if err := e.lattice.Set(s.x, s.y, h-constants.GrainsPerTopple); err != nil {
			return av, fmt.Errorf("topple (%d,%d): %w", s.x, s.y, err)
		}
		av.Topples++
		if toppled == nil {
			toppled = make(map[site]struct{})
		}
		toppled[s] = struct{}{}

		for _, n := range [...]site{{s.x - 1, s.y}, {s.x + 1, s.y}, {s.x, s.y - 1}, {s.x, s.y + 1}} {
			if n.x < 0 || n.x >= size || n.y < 0 || n.y >= size {
				av.GrainsLost++
				continue
			}
			e.pending = append(e.pending, n)
		}
	}
	av.Area = len(toppled)

	if e.trace.Wants(av.Topples) {
		e.trace.Record("avalanche", av.fields())
	}
	return av, nil
}

// Step drops one grain on a uniformly random site, drawing the row then the
// column independently, and resolves the resulting avalanche.
func (e *Engine) Step() (Avalanche, error) {
	size := e.lattice.Size()
	x := e.rng.Intn(size)
	y := e.rng.Intn(size)
	return e.Topple(x, y)
}

// Run performs steps grain drops. After each drop the lattice is compared
// with the newest history entry and a snapshot is appended if any cell
// changed. It returns the live lattice, not a copy.
func (e *Engine) Run(steps int) (*lattice.Lattice, error) {
	if _, err := e.RunWithStats(steps); err != nil {
		return nil, err
	}
	return e.lattice, nil
}

// RunWithStats is Run, returning aggregate avalanche statistics instead of
// the lattice.
func (e *Engine) RunWithStats(steps int) (RunStats, error) {
	if steps < 0 {
		return RunStats{}, fmt.Errorf("run %d: %w", steps, ErrNegativeSteps)
	}

	e.logger.Debug("run starting",
		"size", e.lattice.Size(),
		"steps", steps,
		"seed", e.seed,
		"history", len(e.history))

	var stats RunStats
	for i := 0; i < steps; i++ {
		av, err := e.Step()
		if err != nil {
			return stats, fmt.Errorf("step %d: %w", i, err)
		}
		stats.add(av)

		changed, err := e.lattice.CountDifferences(e.history[len(e.history)-1])
		if err != nil {
			return stats, fmt.Errorf("step %d: %w", i, err)
		}
		if changed > 0 {
			e.history = append(e.history, e.lattice.Snapshot())
			stats.Snapshots++
		}

		if av.Topples > 0 {
			e.logger.Log(context.Background(), logging.LevelTrace, "avalanche",
				"step", i, "x", av.X, "y", av.Y, "topples", av.Topples, "lost", av.GrainsLost)
		}
	}

	e.logger.Debug("run complete",
		"steps", stats.Steps,
		"topples", stats.Topples,
		"grains_lost", stats.GrainsLost,
		"largest", stats.Largest.Topples,
		"snapshots", stats.Snapshots)

	return stats, nil
}
