// Package constants provides named constants used throughout the sandpile codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Toppling rule constants
const (
	// CriticalHeight is the height at which a site topples.
	// A site with height >= CriticalHeight is unstable.
	CriticalHeight = 4

	// GrainsPerTopple is the number of grains a toppling site sheds,
	// one to each orthogonal neighbor.
	GrainsPerTopple = 4
)

// Simulation defaults used when no config file or flag overrides them.
const (
	// DefaultLatticeSize is the default side length of the square lattice.
	DefaultLatticeSize = 100

	// DefaultSteps is the default number of grains dropped by a run.
	DefaultSteps = 1000
)

// Trace file names
const (
	// AvalancheTraceFile is the JSONL file written by the avalanche trace logger.
	AvalancheTraceFile = "avalanches.jsonl"

	// ConfigDirName is the per-user directory holding config.yaml.
	ConfigDirName = ".sandpile"
)
