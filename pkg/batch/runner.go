package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/inject"
	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/netlist"
)

// Progress reports the state of a run.
type Progress struct {
	Phase     string  // "start", "task", "done"
	Index     int     // Tasks finished so far
	Total     int     // Tasks in the run
	Succeeded int     // Tasks written so far
	Result    *Result // Set for "task"
}

// Result is the outcome of one task.
type Result struct {
	Task     Task
	TaskSeed int64
	Report   inject.Report
	Err      error
}

// OK reports whether the task wrote its output.
func (r Result) OK() bool {
	return r.Err == nil
}

// Summary collects the results of one run in task order.
type Summary struct {
	RunID      string
	MasterSeed int64
	Results    []Result
}

// Succeeded returns the number of tasks that wrote their output.
func (s *Summary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the results of tasks that did not complete.
func (s *Summary) Failed() []Result {
	var out []Result
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Runner executes planned tasks.
type Runner struct {
	cfg *Config
}

// NewRunner validates cfg and returns a Runner. A nil cfg uses
// DefaultConfig.
func NewRunner(cfg *Config) (*Runner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("batch: invalid config: %w", err)
	}
	return &Runner{cfg: cfg}, nil
}

// Run executes tasks with task seeds masterSeed+Index. A failing task is
// recorded and the run continues. Cancelling ctx stops the run before the
// next task starts; the summary then holds the tasks that ran, and the
// context error is returned.
func (r *Runner) Run(ctx context.Context, tasks []Task, masterSeed int64, progress chan<- Progress) (*Summary, error) {
	sum := &Summary{
		RunID:      uuid.NewString(),
		MasterSeed: masterSeed,
	}
	log := r.cfg.Logger.With("run", sum.RunID)
	log.Info("run started", "tasks", len(tasks), "master_seed", masterSeed, "workers", r.cfg.Workers)

	if progress != nil {
		progress <- Progress{Phase: "start", Total: len(tasks)}
	}

	results := make([]*Result, len(tasks))
	var (
		mu        sync.Mutex
		finished  int
		succeeded int
	)
	record := func(i int, res Result) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = &res
		finished++
		if res.OK() {
			succeeded++
			log.Info("task written", "index", res.Task.Index, "output", res.Task.Output, "vector", res.Task.Vector.String())
		} else {
			log.Error("task failed", "index", res.Task.Index, "source", res.Task.Source, "error", res.Err)
		}
		if progress != nil {
			progress <- Progress{Phase: "task", Index: finished, Total: len(tasks), Succeeded: succeeded, Result: &res}
		}
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(r.cfg.Workers, max(1, len(tasks))); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				record(i, r.RunTask(tasks[i], masterSeed))
			}
		}()
	}

	var runErr error
feed:
	for i := range tasks {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for _, res := range results {
		if res != nil {
			sum.Results = append(sum.Results, *res)
		}
	}

	if progress != nil {
		progress <- Progress{Phase: "done", Index: finished, Total: len(tasks), Succeeded: succeeded}
	}
	log.Info("run finished", "succeeded", succeeded, "total", len(tasks))
	return sum, runErr
}

// TaskSeed returns the seed of t within a run seeded with master.
func TaskSeed(master int64, t Task) int64 {
	return master + int64(t.Index)
}

// RunTask parses t.Source, applies t.Vector with a generator seeded by the
// task seed, and writes the stamped result to t.Output.
func (r *Runner) RunTask(t Task, masterSeed int64) Result {
	res := Result{Task: t, TaskSeed: TaskSeed(masterSeed, t)}

	opts := []netlist.Option{netlist.WithLogger(r.cfg.Logger)}
	if r.cfg.Strict {
		opts = append(opts, netlist.Strict())
	}
	m, err := netlist.ParseFile(t.Source, opts...)
	if err != nil {
		res.Err = err
		return res
	}

	e := inject.NewSeeded(m, res.TaskSeed, inject.WithLogger(r.cfg.Logger.With("task", t.Index)))
	res.Report = e.Inject(t.Vector)

	text := netlist.Stamp(m.Regenerate(t.CircuitName()), netlist.Provenance{
		Generator:  r.cfg.Generator,
		Source:     filepath.Base(t.Source),
		MasterSeed: masterSeed,
		TaskSeed:   res.TaskSeed,
		Vector:     t.Vector.String(),
		Date:       r.cfg.Now(),
	})
	res.Err = writeFile(t.Output, []byte(text), os.FileMode(r.cfg.FileMode))
	return res
}

// writeFile replaces path in one step so readers never see a partial file.
func writeFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("batch: failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("batch: failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("batch: failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("batch: failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("batch: failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("batch: failed to write %s: %w", path, err)
	}
	return nil
}
