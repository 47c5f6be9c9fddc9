package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/nvandessel/sandpile/internal/config"
	"github.com/nvandessel/sandpile/internal/constants"
	"github.com/nvandessel/sandpile/internal/logging"
	"github.com/nvandessel/sandpile/internal/sandpile"
	"github.com/nvandessel/sandpile/internal/visualization"
	"github.com/spf13/cobra"
)

// runBatch is how many grains are dropped between checks for a stop signal.
const runBatch = 10000

// runSummary is the --json output of the run command.
type runSummary struct {
	Size        int    `json:"size"`
	Seed        int64  `json:"seed"`
	Steps       int    `json:"steps"`
	Requested   int    `json:"requested_steps"`
	Interrupted bool   `json:"interrupted,omitempty"`
	Grains      int    `json:"grains"`
	Topples     int    `json:"topples"`
	Avalanches  int    `json:"avalanches"`
	GrainsLost  int    `json:"grains_lost"`
	Largest     int    `json:"largest_avalanche"`
	Snapshots   int    `json:"history_length"`
	Output      string `json:"output,omitempty"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drop grains on a random lattice and render the settled grid",
		Long: `Create a size×size lattice with random heights in [0,4), drop grains on
random sites, and write the final grid.

The grid goes to stdout unless --output is given; a short summary goes to
stderr. With --json the summary is printed as JSON on stdout and the grid
is only written when --output is set.

Examples:
  sandpile run                                  # 100x100, 1000 grains
  sandpile run --size 64 --steps 50000 --seed 1
  sandpile run --format pgm -o final.pgm        # Greyscale image
  sandpile run --log-level debug --trace-dir .  # Record avalanches.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}
			return runSimulation(cmd, cfg)
		},
	}

	cmd.Flags().Int("size", constants.DefaultLatticeSize, "Side length of the square lattice")
	cmd.Flags().Int("steps", constants.DefaultSteps, "Number of grains to drop")
	cmd.Flags().Int64("seed", 0, "Seed for a reproducible run (default: from the clock)")
	cmd.Flags().String("format", "text", "Output format: text, json, or pgm")
	cmd.Flags().StringP("output", "o", "", "Write the grid to this file instead of stdout")
	cmd.Flags().String("log-level", "", "Log level: info, debug, or trace")
	cmd.Flags().String("trace-dir", "", "Directory for avalanches.jsonl (debug/trace levels)")

	return cmd
}

// loadRunConfig layers flags that were explicitly set over the loaded config.
func loadRunConfig(cmd *cobra.Command) (*config.SandpileConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Simulation.Size, _ = flags.GetInt("size")
	}
	if flags.Changed("steps") {
		cfg.Simulation.Steps, _ = flags.GetInt("steps")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		cfg.Simulation.Seed = &seed
	}
	if flags.Changed("format") {
		cfg.Render.Format, _ = flags.GetString("format")
	}
	if flags.Changed("output") {
		cfg.Render.Output, _ = flags.GetString("output")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("trace-dir") {
		cfg.Logging.TraceDir, _ = flags.GetString("trace-dir")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, cfg *config.SandpileConfig) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	format, err := visualization.ParseFormat(cfg.Render.Format)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

	traceDir := cfg.Logging.TraceDir
	if traceDir == "" {
		traceDir = constants.ConfigDirName
	}
	trace := logging.NewAvalancheLogger(traceDir, cfg.Logging.Level)
	defer trace.Close()

	opts := []sandpile.Option{
		sandpile.WithLogger(logger),
		sandpile.WithAvalancheTrace(trace),
	}
	if cfg.Simulation.Seed != nil {
		opts = append(opts, sandpile.WithSeed(*cfg.Simulation.Seed))
	}

	engine, err := sandpile.New(cfg.Simulation.Size, opts...)
	if err != nil {
		return err
	}
	logger.Info("simulation starting",
		"size", engine.Size(),
		"steps", cfg.Simulation.Steps,
		"seed", engine.Seed())

	stats, interrupted, err := runInBatches(engine, cfg.Simulation.Steps, logger)
	if err != nil {
		return err
	}

	if err := writeGrid(cmd, cfg.Render.Output, format, engine.Grid(), jsonOut); err != nil {
		return err
	}

	summary := runSummary{
		Size:        engine.Size(),
		Seed:        engine.Seed(),
		Steps:       stats.Steps,
		Requested:   cfg.Simulation.Steps,
		Interrupted: interrupted,
		Grains:      engine.Lattice().Sum(),
		Topples:     stats.Topples,
		Avalanches:  stats.Avalanches,
		GrainsLost:  stats.GrainsLost,
		Largest:     stats.Largest.Topples,
		Snapshots:   len(engine.History()),
		Output:      cfg.Render.Output,
	}

	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(summary)
	}
	printSummary(cmd.ErrOrStderr(), summary)
	return nil
}

// runInBatches drops steps grains, checking for SIGINT/SIGTERM between
// batches. The engine itself is never touched from another goroutine.
func runInBatches(engine *sandpile.Engine, steps int, logger *slog.Logger) (sandpile.RunStats, bool, error) {
	stop := make(chan os.Signal, 1)
	notifyStop(stop)
	defer signal.Stop(stop)

	var total sandpile.RunStats
	for remaining := steps; remaining > 0; {
		select {
		case sig := <-stop:
			logger.Warn("run interrupted", "signal", sig.String(), "completed", total.Steps)
			return total, true, nil
		default:
		}

		n := min(remaining, runBatch)
		stats, err := engine.RunWithStats(n)
		if err != nil {
			return total, false, fmt.Errorf("run: %w", err)
		}
		total.Merge(stats)
		remaining -= n
	}
	return total, false, nil
}

// writeGrid renders the grid to path, or to stdout when path is empty.
// In JSON mode stdout carries the summary, so an empty path skips the grid.
func writeGrid(cmd *cobra.Command, path string, format visualization.Format, rows [][]int, jsonOut bool) error {
	if path == "" {
		if jsonOut {
			return nil
		}
		return visualization.Render(cmd.OutOrStdout(), format, rows)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := visualization.Render(f, format, rows); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, s runSummary) {
	fmt.Fprintf(w, "Lattice:     %dx%d (seed %d)\n", s.Size, s.Size, s.Seed)
	if s.Interrupted {
		fmt.Fprintf(w, "Grains:      %s of %s dropped (interrupted)\n", humanize.Comma(int64(s.Steps)), humanize.Comma(int64(s.Requested)))
	} else {
		fmt.Fprintf(w, "Grains:      %s dropped\n", humanize.Comma(int64(s.Steps)))
	}
	fmt.Fprintf(w, "Avalanches:  %s (%s topples, largest %s)\n",
		humanize.Comma(int64(s.Avalanches)), humanize.Comma(int64(s.Topples)), humanize.Comma(int64(s.Largest)))
	fmt.Fprintf(w, "Lost:        %s grains off the edge\n", humanize.Comma(int64(s.GrainsLost)))
	fmt.Fprintf(w, "On lattice:  %s grains\n", humanize.Comma(int64(s.Grains)))
	fmt.Fprintf(w, "History:     %s distinct states\n", humanize.Comma(int64(s.Snapshots)))
	if s.Output != "" {
		fmt.Fprintf(w, "Grid written to %s\n", s.Output)
	}
}
