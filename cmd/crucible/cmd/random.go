package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/batch"
)

var (
	// Flags for random command
	randomCount int
)

var randomCmd = &cobra.Command{
	Use:   "random <input> [output-dir]",
	Short: "Generate netlists with random sources and vectors",
	Long: `Generate --count netlists, each from a random source file and a random
16-bit vector. The input is a netlist or a directory of .scs files.

The plan is drawn from the master seed, so the same seed and inputs give
the same files.

Examples:
  crucible random amp.scs --count 50 --seed 7
  crucible random seeds/ dataset --count 1000 --workers 8 --manifest dataset/run.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRandom,
}

func init() {
	rootCmd.AddCommand(randomCmd)

	randomCmd.Flags().IntVarP(&randomCount, "count", "c", 0,
		"number of netlists to generate")
	randomCmd.MarkFlagRequired("count")
	addRunFlags(randomCmd)
}

func runRandom(cmd *cobra.Command, args []string) error {
	if randomCount <= 0 {
		return errors.New("--count must be positive")
	}
	sources, err := batch.CollectSources(args[0])
	if err != nil {
		return fmt.Errorf("failed to collect sources: %w", err)
	}

	master := masterSeed(cmd)
	fmt.Printf("Found %d source files. Generating %d random tasks...\n", len(sources), randomCount)
	return runTasks(cmd, batch.Random(sources, outputDir(args), randomCount, master), master)
}
