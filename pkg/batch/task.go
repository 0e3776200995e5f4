package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/inject"
)

// NetlistExt is the extension of netlist files.
const NetlistExt = ".scs"

// DefaultOutputDir is used when no output location is given.
const DefaultOutputDir = "results"

// ErrNoSources is returned when a directory holds no netlists.
var ErrNoSources = errors.New("batch: no " + NetlistExt + " files found")

// Task is one parse-inject-write job. Index is the task's position in the
// run and determines its seed.
type Task struct {
	Index  int           `json:"index"`
	Source string        `json:"source"`
	Output string        `json:"output"`
	Vector inject.Vector `json:"-"`
}

// OutputName returns the file name for the index-th derivative of source
// under v: {base}_{XXXXXXXX_XXXXXXXX}_{index}.scs.
func OutputName(source string, v inject.Vector, index int) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return fmt.Sprintf("%s_%s_%d%s", base, v, index, NetlistExt)
}

// CircuitName returns the name the regenerated circuit takes: the output
// file name without its extension.
func (t Task) CircuitName() string {
	base := filepath.Base(t.Output)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Single plans one task. An output ending in .scs is used as the file
// path; anything else is a directory that receives the default name.
func Single(source, output string, v inject.Vector) []Task {
	if output == "" {
		output = DefaultOutputDir
	}
	path := output
	if !strings.HasSuffix(output, NetlistExt) {
		path = filepath.Join(output, OutputName(source, v, 0))
	}
	return []Task{{Index: 0, Source: source, Output: path, Vector: v}}
}

// Item requests Count derivatives of one vector, numbered from Start.
type Item struct {
	Count  int
	Vector inject.Vector
	Start  int
}

// ParseItem reads "count,vector[,start]". The returned flag is the
// vector's ambiguity report from inject.ParseVector.
func ParseItem(s string) (Item, bool, error) {
	fields := strings.Split(s, ",")
	if len(fields) < 2 || len(fields) > 3 {
		return Item{}, false, fmt.Errorf("batch: item %q must be count,vector[,start]", s)
	}

	count, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || count < 0 {
		return Item{}, false, fmt.Errorf("batch: item %q has an invalid count", s)
	}
	v, ambiguous, err := inject.ParseVector(fields[1])
	if err != nil {
		return Item{}, false, fmt.Errorf("batch: item %q: %w", s, err)
	}
	item := Item{Count: count, Vector: v}
	if len(fields) == 3 {
		start, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil || start < 0 {
			return Item{}, false, fmt.Errorf("batch: item %q has an invalid start index", s)
		}
		item.Start = start
	}
	return item, ambiguous, nil
}

// Expand plans every derivative requested by items, in order, into dir.
func Expand(source, dir string, items []Item) []Task {
	if dir == "" {
		dir = DefaultOutputDir
	}
	var tasks []Task
	for _, it := range items {
		for i := it.Start; i < it.Start+it.Count; i++ {
			tasks = append(tasks, Task{
				Index:  len(tasks),
				Source: source,
				Output: filepath.Join(dir, OutputName(source, it.Vector, i)),
				Vector: it.Vector,
			})
		}
	}
	return tasks
}

// Random plans count tasks, each drawing a source netlist and a vector
// from a generator seeded with seed.
func Random(sources []string, dir string, count int, seed int64) []Task {
	if len(sources) == 0 || count <= 0 {
		return nil
	}
	if dir == "" {
		dir = DefaultOutputDir
	}
	rng := inject.NewRand(seed)
	tasks := make([]Task, 0, count)
	for i := 0; i < count; i++ {
		src := sources[rng.IntN(len(sources))]
		v := inject.Vector(rng.IntN(1 << 16))
		tasks = append(tasks, Task{
			Index:  i,
			Source: src,
			Output: filepath.Join(dir, OutputName(src, v, i)),
			Vector: v,
		})
	}
	return tasks
}

// CollectSources returns path itself when it is a file, or the netlists
// directly inside it, sorted by name, when it is a directory.
func CollectSources(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("batch: failed to read directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), NetlistExt) {
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSources, path)
	}
	return out, nil
}
