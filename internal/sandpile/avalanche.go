package sandpile

// Avalanche describes the cascade caused by a single grain drop.
type Avalanche struct {
	// X and Y locate the site the grain was dropped on.
	X, Y int

	// Topples counts topple events, including repeat topples of one site.
	Topples int

	// Area counts the distinct sites that toppled at least once.
	Area int

	// GrainsLost counts grains shed past the lattice edge.
	GrainsLost int
}

// MassDelta is the net change in total grains caused by the drop:
// one grain in, GrainsLost grains out.
func (a Avalanche) MassDelta() int {
	return 1 - a.GrainsLost
}

func (a Avalanche) fields() map[string]any {
	return map[string]any{
		"x":       a.X,
		"y":       a.Y,
		"topples": a.Topples,
		"area":    a.Area,
		"lost":    a.GrainsLost,
	}
}

// RunStats aggregates the avalanches of one Run.
type RunStats struct {
	Steps      int
	Topples    int
	GrainsLost int

	// Avalanches counts drops that toppled at least one site.
	Avalanches int

	// Largest is the avalanche with the most topples; ties keep the earliest.
	Largest Avalanche

	// Snapshots counts history entries appended during the run.
	Snapshots int
}

func (s *RunStats) add(a Avalanche) {
	s.Steps++
	s.Topples += a.Topples
	s.GrainsLost += a.GrainsLost
	if a.Topples > 0 {
		s.Avalanches++
	}
	if a.Topples > s.Largest.Topples {
		s.Largest = a
	}
}

// Merge folds the statistics of a later run into s.
func (s *RunStats) Merge(o RunStats) {
	s.Steps += o.Steps
	s.Topples += o.Topples
	s.GrainsLost += o.GrainsLost
	s.Avalanches += o.Avalanches
	s.Snapshots += o.Snapshots
	if o.Largest.Topples > s.Largest.Topples {
		s.Largest = o.Largest
	}
}
