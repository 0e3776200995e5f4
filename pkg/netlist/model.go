package netlist

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/circuit"
)

// Section markers of the netlist layout.
const (
	TopologyMarker  = "*--- TOPOLOGY ---*"
	TestbenchMarker = "*--- TESTBENCH ---*"
	PinInfoPrefix   = "*.PININFO"
)

// ErrTopologyMarker is returned when a file does not contain exactly one
// topology marker.
var ErrTopologyMarker = errors.New("netlist: file must contain exactly one " + TopologyMarker + " block")

// DroppedLine records a topology line that was not turned into a component.
type DroppedLine struct {
	Line   string
	Reason error
}

// Model is the parsed, mutable form of one netlist file. It owns the
// component list and the parameter table; everything outside the topology
// block is kept as opaque text.
type Model struct {
	Source      string // file the model was read from, if any
	CircuitName string
	Ports       []string
	PinInfo     string

	components []*circuit.Component
	dropped    []DroppedLine

	pre  string // text before the topology marker
	post string // testbench marker and everything after it

	params *paramTable
}

type parseConfig struct {
	strict bool
	logger *slog.Logger
}

// Option configures parsing.
type Option func(*parseConfig)

// Strict makes unrecognized component lines a parse error instead of
// dropping them.
func Strict() Option {
	return func(c *parseConfig) { c.strict = true }
}

// WithLogger sets the logger that reports dropped lines.
func WithLogger(l *slog.Logger) Option {
	return func(c *parseConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// ParseFile reads and parses a netlist file.
func ParseFile(path string, opts ...Option) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("netlist: failed to read file: %w", err)
	}
	m, err := Parse(string(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	m.Source = path
	return m, nil
}

// Parse builds a Model from netlist text.
func Parse(text string, opts ...Option) (*Model, error) {
	cfg := parseConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if strings.Count(text, TopologyMarker) != 1 {
		return nil, ErrTopologyMarker
	}
	pre, rest, _ := strings.Cut(text, TopologyMarker)

	m := &Model{
		pre:    pre,
		params: newParamTable(),
	}
	m.params.seed(pre)

	topology := rest
	if before, after, ok := strings.Cut(rest, TestbenchMarker); ok {
		topology = before
		m.post = "\n" + TestbenchMarker + after
	}

	if err := m.parseTopology(topology, cfg); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) parseTopology(block string, cfg parseConfig) error {
	sawHeader := false
	for _, raw := range strings.Split(strings.TrimSpace(block), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "*---") && strings.HasSuffix(line, "---*"):
			if sawHeader {
				continue
			}
			fields := strings.Fields(line[4 : len(line)-4])
			if len(fields) > 0 {
				m.CircuitName = fields[0]
				m.Ports = fields[1:]
				sawHeader = true
			}
		case strings.HasPrefix(line, PinInfoPrefix):
			m.PinInfo = line
		case strings.HasPrefix(line, "*"):
			continue
		default:
			c, err := parseElement(line)
			if err != nil {
				if cfg.strict {
					return err
				}
				cfg.logger.Warn("dropping component line", "line", line, "reason", err)
				m.dropped = append(m.dropped, DroppedLine{Line: line, Reason: err})
				continue
			}
			m.components = append(m.components, c)
		}
	}
	return nil
}

// Components returns the live component list in declaration order. The
// components may be mutated in place; the slice itself must only grow
// through AddComponent.
func (m *Model) Components() []*circuit.Component {
	return m.components
}

// AddComponent appends a new component after all existing ones.
func (m *Model) AddComponent(c *circuit.Component) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if m.Component(c.Name) != nil {
		return fmt.Errorf("netlist: duplicate component name %q", c.Name)
	}
	m.components = append(m.components, c)
	return nil
}

// Component returns the component with the given name, or nil.
func (m *Model) Component(name string) *circuit.Component {
	for _, c := range m.components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Transistors returns the transistors in declaration order.
func (m *Model) Transistors() []*circuit.Component {
	var out []*circuit.Component
	for _, c := range m.components {
		if c.Kind == circuit.Transistor {
			out = append(out, c)
		}
	}
	return out
}

// HasPort reports whether name is a declared port.
func (m *Model) HasPort(name string) bool {
	for _, p := range m.Ports {
		if p == name {
			return true
		}
	}
	return false
}

// Dropped returns the topology lines that were skipped during parsing.
func (m *Model) Dropped() []DroppedLine {
	return m.dropped
}

// Graph builds a fresh incidence graph over the current components.
func (m *Model) Graph() *circuit.Graph {
	return circuit.Build(m.components)
}

// AllocateName returns a new, unused name for prefix. Reserved parameter
// prefixes (nA, nB, nR, nC) draw from their session counters; any other
// prefix gets the lowest numeric suffix above the last one handed out that
// does not clash with an existing parameter or component.
func (m *Model) AllocateName(prefix string) string {
	return m.params.allocate(prefix, m.nameTaken)
}

// RegisterParameter records a parameter declaration to be emitted by
// Regenerate. Reserved-prefix parameters are emitted as {{name}} templates;
// others keep value literally.
func (m *Model) RegisterParameter(name, value string) {
	m.params.register(name, value)
}

// Parameter returns the registered or declared value of name.
func (m *Model) Parameter(name string) (string, bool) {
	return m.params.lookup(name)
}

func (m *Model) nameTaken(name string) bool {
	if _, ok := m.params.lookup(name); ok {
		return true
	}
	return m.Component(name) != nil
}
