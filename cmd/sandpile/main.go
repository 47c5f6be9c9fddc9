package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sandpile",
		Short: "Abelian sandpile simulator",
		Long: `sandpile simulates the Bak-Tang-Wiesenfeld sandpile on a square lattice.

Grains are dropped one at a time on random sites. A site holding four or
more grains topples, passing one grain to each neighbor; grains pushed off
the edge are lost. The settled grid is written as text, JSON, or a PGM image.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.sandpile/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newConfigCmd(),
	)
	return rootCmd
}
