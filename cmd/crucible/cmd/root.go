package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	strict  bool
)

var rootCmd = &cobra.Command{
	Use:   "crucible",
	Short: "Fault injector for analog netlists",
	Long: `Crucible injects structural faults into Spectre-style analog netlists
to produce labelled broken circuits for training and benchmarking.

Each of the 16 bits of a fault vector selects one fault operator. Every
generated netlist records its source, seeds and vector in a header so it
can be reproduced exactly.

Examples:
  crucible inject amp.scs --vector 0b101 --seed 42        # One broken netlist
  crucible batch amp.scs out --item 10,5 --item 3,0b0     # Several vectors
  crucible random seeds/ out --count 100 --seed 7          # Random sources and vectors
  crucible inspect amp.scs                                 # Show circuit structure`,
	Version:      "0.1.0",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger())
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "fail on unrecognized topology lines instead of dropping them")
}

// newLogger returns a text logger on stderr. Warnings only, unless verbose.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
