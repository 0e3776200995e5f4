package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/batch"
)

var (
	// Flags for batch command
	batchItems []string
)

var batchCmd = &cobra.Command{
	Use:   "batch <input.scs> [output-dir]",
	Short: "Generate several faulty netlists from a list of vectors",
	Long: `Generate count netlists for each --item "count,vector[,start]".

Files of one item are numbered from start (default 0), so items can be
added to an existing output directory without overwriting earlier runs.
Invalid items are reported and skipped.

Examples:
  crucible batch amp.scs --item 10,0b1 --item 10,0b10 --seed 1
  crucible batch amp.scs out --item 5,65535,100 --manifest out/run.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringArrayVarP(&batchItems, "item", "i", nil,
		`batch item "count,vector[,start]" (repeatable)`)
	batchCmd.MarkFlagRequired("item")
	addRunFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if err := requireFile(args[0], "batch"); err != nil {
		return err
	}

	var items []batch.Item
	for _, raw := range batchItems {
		item, ambiguous, err := batch.ParseItem(raw)
		if err != nil {
			fmt.Printf("Skipping invalid batch item %q: %v\n", raw, err)
			continue
		}
		warnAmbiguous(raw, item.Vector, ambiguous)
		items = append(items, item)
	}
	if len(items) == 0 {
		return errors.New("no valid batch items")
	}

	master := masterSeed(cmd)
	return runTasks(cmd, batch.Expand(args[0], outputDir(args), items), master)
}
