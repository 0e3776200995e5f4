package batch

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/inject"
)

func TestOutputName(t *testing.T) {
	got := OutputName("/data/seeds/diffamp.scs", 5, 3)
	if got != "diffamp_00000000_00000101_3.scs" {
		t.Errorf("OutputName() = %q", got)
	}
}

func TestSingle(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"", filepath.Join("results", "amp_00000000_00000001_0.scs")},
		{"out", filepath.Join("out", "amp_00000000_00000001_0.scs")},
		{"out/custom.scs", "out/custom.scs"},
	}

	for _, tt := range tests {
		tasks := Single("seeds/amp.scs", tt.output, 1)
		if len(tasks) != 1 {
			t.Fatalf("Expected 1 task, got %d", len(tasks))
		}
		if tasks[0].Output != tt.want {
			t.Errorf("Single(%q) output = %q, want %q", tt.output, tasks[0].Output, tt.want)
		}
	}

	task := Single("amp.scs", "x/custom.scs", 1)[0]
	if task.CircuitName() != "custom" {
		t.Errorf("CircuitName() = %q", task.CircuitName())
	}
}

func TestParseItem(t *testing.T) {
	tests := []struct {
		in        string
		want      Item
		ambiguous bool
	}{
		{"10,0b101", Item{Count: 10, Vector: 5}, false},
		{"3, 00000000_00000011, 7", Item{Count: 3, Vector: 3, Start: 7}, false},
		{"2,101", Item{Count: 2, Vector: 5}, true},
		{"1,300", Item{Count: 1, Vector: 300}, false},
	}

	for _, tt := range tests {
		got, ambiguous, err := ParseItem(tt.in)
		if err != nil {
			t.Fatalf("ParseItem(%q) failed: %v", tt.in, err)
		}
		if got != tt.want || ambiguous != tt.ambiguous {
			t.Errorf("ParseItem(%q) = %+v, %v; want %+v, %v", tt.in, got, ambiguous, tt.want, tt.ambiguous)
		}
	}

	for _, bad := range []string{"10", "a,1", "1,1,1,1", "1,70000", "-1,1", "1,1,x"} {
		if _, _, err := ParseItem(bad); err == nil {
			t.Errorf("ParseItem(%q) should fail", bad)
		}
	}
	if _, _, err := ParseItem("1,70000"); !errors.Is(err, inject.ErrInvalidVector) {
		t.Errorf("expected ErrInvalidVector, got %v", err)
	}
}

func TestExpand(t *testing.T) {
	tasks := Expand("amp.scs", "out", []Item{
		{Count: 2, Vector: 1},
		{Count: 2, Vector: 4, Start: 5},
	})

	var outputs []string
	for i, task := range tasks {
		if task.Index != i {
			t.Errorf("task %d has index %d", i, task.Index)
		}
		outputs = append(outputs, filepath.Base(task.Output))
	}
	want := []string{
		"amp_00000000_00000001_0.scs",
		"amp_00000000_00000001_1.scs",
		"amp_00000000_00000100_5.scs",
		"amp_00000000_00000100_6.scs",
	}
	if !reflect.DeepEqual(outputs, want) {
		t.Errorf("outputs = %v, want %v", outputs, want)
	}
}

func TestRandomIsSeeded(t *testing.T) {
	sources := []string{"a.scs", "b.scs", "c.scs"}
	a := Random(sources, "out", 20, 99)
	b := Random(sources, "out", 20, 99)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different plans")
	}
	if len(a) != 20 {
		t.Fatalf("Expected 20 tasks, got %d", len(a))
	}
	for i, task := range a {
		if task.Index != i {
			t.Errorf("task %d has index %d", i, task.Index)
		}
		if filepath.Base(task.Output) != OutputName(task.Source, task.Vector, i) {
			t.Errorf("task %d output %q does not match its vector", i, task.Output)
		}
	}
	if Random(nil, "out", 5, 1) != nil {
		t.Error("expected no tasks without sources")
	}
}

func TestCollectSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.scs", "a.scs", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.scs"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := CollectSources(dir)
	if err != nil {
		t.Fatalf("CollectSources failed: %v", err)
	}
	want := []string{filepath.Join(dir, "a.scs"), filepath.Join(dir, "b.scs")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectSources() = %v, want %v", got, want)
	}

	file := filepath.Join(dir, "a.scs")
	if got, _ := CollectSources(file); !reflect.DeepEqual(got, []string{file}) {
		t.Errorf("CollectSources(file) = %v", got)
	}

	if _, err := CollectSources(t.TempDir()); !errors.Is(err, ErrNoSources) {
		t.Errorf("expected ErrNoSources, got %v", err)
	}
	if _, err := CollectSources(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing path")
	}
}
