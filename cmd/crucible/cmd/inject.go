package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/batch"
	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/inject"
)

var (
	// Flags for inject command
	injectVector string
)

var injectCmd = &cobra.Command{
	Use:   "inject <input.scs> [output]",
	Short: "Generate one faulty netlist from a fault vector",
	Long: `Apply a single fault vector to a netlist and write the result.

The output may be a file ending in .scs or a directory. When it is a
directory (default "results"), the file is named
{source}_{vector}_0.scs.

The vector is a 16-bit integer. Strings of only 0 and 1 are read as
binary; prefix with 0b or group with underscores to make that explicit.

Fault bits (LSB first):
  0 type-swap         4 terminal-open     8 bias-path        12 stack
  1 bias-disconnect   5 rail-conflict     9 symmetry-break   13 steering
  2 component-bypass  6 device-short     10 loop-phase       14 isolation
  3 global-short      7 port-float       11 impedance        15 dropout

Examples:
  crucible inject amp.scs --vector 0b101 --seed 42
  crucible inject amp.scs out/broken.scs --vector 00000000_10000001
  crucible inject amp.scs out --vector 65535`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInject,
}

func init() {
	rootCmd.AddCommand(injectCmd)

	injectCmd.Flags().StringVarP(&injectVector, "vector", "e", "",
		"16-bit fault vector (decimal, 0b-prefixed or 0/1 string)")
	injectCmd.MarkFlagRequired("vector")
	addRunFlags(injectCmd)
}

func runInject(cmd *cobra.Command, args []string) error {
	v, ambiguous, err := inject.ParseVector(injectVector)
	if err != nil {
		return fmt.Errorf("invalid error vector: %w", err)
	}
	if err := requireFile(args[0], "single"); err != nil {
		return err
	}
	warnAmbiguous(injectVector, v, ambiguous)

	output := ""
	if len(args) > 1 {
		output = args[1]
	}
	master := masterSeed(cmd)
	return runTasks(cmd, batch.Single(args[0], output, v), master)
}
