package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/batch"
	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/inject"
)

var (
	// Flags shared by the generating commands
	seed         int64
	workers      int
	manifestPath string
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int64VarP(&seed, "seed", "s", 0,
		"master seed; task i uses seed+i (random if not set)")
	cmd.Flags().IntVarP(&workers, "workers", "j", 1,
		"number of tasks to run in parallel")
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "",
		"write a JSON manifest of the run to this file")
}

// masterSeed returns the --seed value, or a random 32-bit seed when the
// flag was not given.
func masterSeed(cmd *cobra.Command) int64 {
	if cmd.Flags().Changed("seed") {
		fmt.Printf("Using provided Master Seed: %d\n", seed)
		return seed
	}
	s := int64(rand.Uint32())
	fmt.Printf("No seed provided. Auto-generated Master Seed: %d\n", s)
	return s
}

func warnAmbiguous(raw string, v inject.Vector, ambiguous bool) {
	if ambiguous {
		fmt.Printf("Warning: vector %q read as binary %s (%d); use a 0b prefix or underscores to be explicit\n",
			raw, v, uint16(v))
	}
}

// requireFile fails unless path is an existing regular file.
func requireFile(path, mode string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input file or directory '%s' not found: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s mode requires a single input file, not a directory", mode)
	}
	return nil
}

func outputDir(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return batch.DefaultOutputDir
}

// runTasks executes tasks, printing one line per task as it finishes.
func runTasks(cmd *cobra.Command, tasks []batch.Task, master int64) error {
	cfg := batch.DefaultConfig()
	cfg.Workers = workers
	cfg.Strict = strict
	cfg.Logger = slog.Default()

	runner, err := batch.NewRunner(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Processing tasks with master seed: %d\n", master)

	progress := make(chan batch.Progress)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if p.Phase != "task" {
				continue
			}
			if res := p.Result; res.OK() {
				fmt.Printf("  [OK] Saved to '%s' (Vector: %d)\n", res.Task.Output, uint16(res.Task.Vector))
			} else {
				fmt.Printf("  [FAIL] Failed to generate '%s': %v\n", res.Task.Output, res.Err)
			}
		}
	}()

	sum, runErr := runner.Run(cmd.Context(), tasks, master, progress)
	close(progress)
	<-done

	fmt.Printf("\nCompleted %d/%d tasks.\n", sum.Succeeded(), len(tasks))

	if manifestPath != "" {
		if err := sum.WriteManifest(manifestPath); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
		fmt.Printf("Manifest written to %s\n", manifestPath)
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	if len(tasks) > 0 && sum.Succeeded() == 0 {
		return errors.New("no tasks completed")
	}
	return nil
}
