package batch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/inject"
	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/netlist"
)

const fixture = "../../testdata/diffamp.scs"

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.Now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return cfg
}

func TestRunWritesStampedNetlists(t *testing.T) {
	dir := t.TempDir()
	runner, err := NewRunner(testConfig())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	tasks := Expand(fixture, dir, []Item{{Count: 2, Vector: inject.VectorOf(inject.TypeSwap, inject.Dropout)}})
	sum, err := runner.Run(context.Background(), tasks, 42, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.Succeeded() != 2 || len(sum.Failed()) != 0 {
		t.Fatalf("Expected 2 successes, got %d (failed %v)", sum.Succeeded(), sum.Failed())
	}

	for i, res := range sum.Results {
		if res.TaskSeed != int64(42+i) {
			t.Errorf("task %d seed = %d", i, res.TaskSeed)
		}
		data, err := os.ReadFile(res.Task.Output)
		if err != nil {
			t.Fatalf("Failed to read output: %v", err)
		}
		text := string(data)
		for _, want := range []string{
			"*--- TOPOLOGY ---*\n\n* Generated By ASPECTOR Crucible\n",
			"* Derivative Netlist: diffamp.scs\n",
			"* Master Seed: 42\n",
			"* Task Seed: " + strconv.Itoa(42+i) + "\n",
			"* Error Vector: 10000000_00000001\n",
			"* Date: Wed Mar  4 05:06:07 UTC 2026\n",
			"*--- " + res.Task.CircuitName() + " Vinp Vinn Voutp ---*",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("output %d is missing %q", i, want)
			}
		}

		if _, err := netlist.Parse(text, netlist.Strict()); err != nil {
			t.Errorf("output %d does not parse: %v", i, err)
		}
	}
}

func TestRunIsReproducible(t *testing.T) {
	read := func(workers int) []string {
		dir := t.TempDir()
		cfg := testConfig()
		cfg.Workers = workers
		runner, err := NewRunner(cfg)
		if err != nil {
			t.Fatal(err)
		}
		tasks := Random([]string{fixture}, dir, 6, 7)
		sum, err := runner.Run(context.Background(), tasks, 1000, nil)
		if err != nil {
			t.Fatal(err)
		}
		var out []string
		for _, res := range sum.Results {
			data, err := os.ReadFile(res.Task.Output)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, string(data))
		}
		return out
	}

	serial := read(1)
	parallel := read(3)
	if len(serial) != 6 || len(parallel) != 6 {
		t.Fatalf("Expected 6 outputs, got %d and %d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i] != parallel[i] {
			t.Errorf("task %d differs between serial and parallel runs", i)
		}
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.scs")
	if err := os.WriteFile(bad, []byte("no marker here\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner, err := NewRunner(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	tasks := []Task{
		{Index: 0, Source: bad, Output: filepath.Join(dir, "out", "bad_0.scs"), Vector: 1},
		{Index: 1, Source: fixture, Output: filepath.Join(dir, "out", "good_1.scs"), Vector: 1},
	}

	progress := make(chan Progress, 8)
	sum, err := runner.Run(context.Background(), tasks, 5, progress)
	close(progress)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.Succeeded() != 1 {
		t.Fatalf("Expected 1 success, got %d", sum.Succeeded())
	}
	failed := sum.Failed()
	if len(failed) != 1 || !strings.Contains(failed[0].Err.Error(), "bad.scs") {
		t.Errorf("unexpected failures %+v", failed)
	}

	var phases []string
	for p := range progress {
		phases = append(phases, p.Phase)
	}
	if strings.Join(phases, ",") != "start,task,task,done" {
		t.Errorf("progress phases = %v", phases)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	runner, err := NewRunner(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := runner.Run(ctx, Expand(fixture, t.TempDir(), []Item{{Count: 3, Vector: 1}}), 0, nil)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(sum.Results) != 0 {
		t.Errorf("Expected no results, got %d", len(sum.Results))
	}
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	runner, err := NewRunner(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	sum, err := runner.Run(context.Background(), Single(fixture, dir, inject.VectorOf(inject.BiasDisconnect)), 3, nil)
	if err != nil {
		t.Fatal(err)
	}

	manifest := filepath.Join(dir, "manifest.json")
	if err := sum.WriteManifest(manifest); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}
	data, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		RunID      string `json:"run_id"`
		MasterSeed int64  `json:"master_seed"`
		Succeeded  int    `json:"succeeded"`
		Tasks      []struct {
			Vector   string   `json:"vector"`
			TaskSeed int64    `json:"task_seed"`
			Status   string   `json:"status"`
			Applied  []string `json:"applied"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Failed to unmarshal manifest: %v", err)
	}
	if len(out.RunID) != 36 || out.MasterSeed != 3 || out.Succeeded != 1 {
		t.Errorf("unexpected manifest header %+v", out)
	}
	if len(out.Tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(out.Tasks))
	}
	task := out.Tasks[0]
	if task.Vector != "00000000_00000010" || task.TaskSeed != 3 || task.Status != "ok" {
		t.Errorf("unexpected task entry %+v", task)
	}
	if len(task.Applied) != 1 || task.Applied[0] != "bias-disconnect" {
		t.Errorf("applied = %v", task.Applied)
	}

	if _, err := (&Summary{}).ExportJSON(); err == nil {
		t.Error("expected error for summary without run ID")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{Workers: -2}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Workers != 1 || cfg.Generator != netlist.DefaultGenerator || cfg.Now == nil || cfg.Logger == nil || cfg.FileMode != 0o644 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
