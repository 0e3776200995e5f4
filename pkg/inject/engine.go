package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/netlist"
)

// ErrNoTargets is reported by an operator that found nothing to mutate.
var ErrNoTargets = errors.New("inject: no eligible targets")

// Supply rails used by the operators that tie nets off.
const (
	RailVDD = "vdd!"
	RailGND = "gnd!"
)

// Input port names swapped by the loop-phase operator.
const (
	PortInP = "Vinp"
	PortInN = "Vinn"
)

// Outcome is the result of one requested operator.
type Outcome struct {
	Fault     Fault
	Mutations int   // terminal reassignments, flips, parameter edits and insertions
	Ran       Fault // operator that actually ran; differs from Fault after a fallback
	Err       error // nil when the operator applied
}

// Applied reports whether the operator changed the circuit.
func (o Outcome) Applied() bool {
	return o.Err == nil
}

// Skipped reports whether the operator found no targets.
func (o Outcome) Skipped() bool {
	return errors.Is(o.Err, ErrNoTargets)
}

// Report collects the outcomes of one Inject call in bit order.
type Report struct {
	Vector   Vector
	Outcomes []Outcome
}

// Applied returns the number of operators that changed the circuit.
func (r Report) Applied() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Applied() {
			n++
		}
	}
	return n
}

// Failed returns the outcomes that did not apply for a reason other than
// missing targets.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil && !o.Skipped() {
			out = append(out, o)
		}
	}
	return out
}

// Engine applies fault operators to one netlist model. An Engine is not safe
// for concurrent use; run one per task.
type Engine struct {
	model *netlist.Model
	graph *circuit.Graph
	rng   *rand.Rand
	log   *slog.Logger

	netSeq int // last issued net{k} suffix

	fault Fault // operator currently running, for log attributes
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for mutation and skip records.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New wraps model. All random choices are drawn from rng.
func New(model *netlist.Model, rng *rand.Rand, opts ...Option) *Engine {
	e := &Engine{
		model: model,
		rng:   rng,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rebuild()
	for _, p := range model.Ports {
		e.observeNet(p)
	}
	return e
}

// NewSeeded is New with a PCG generator seeded from seed.
func NewSeeded(model *netlist.Model, seed int64, opts ...Option) *Engine {
	return New(model, NewRand(seed), opts...)
}

// NewRand returns the generator used for a task seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// Model returns the model being mutated.
func (e *Engine) Model() *netlist.Model {
	return e.model
}

// Graph returns the current incidence graph.
func (e *Engine) Graph() *circuit.Graph {
	return e.graph
}

// Inject runs every operator requested by v in increasing bit order. A
// failing or inapplicable operator is recorded and the next one still runs.
func (e *Engine) Inject(v Vector) Report {
	r := Report{Vector: v}
	for _, f := range v.Faults() {
		e.log.Info("injecting fault", "bit", int(f), "fault", f.Name(), "code", f.Code())
		o := e.Apply(f)
		switch {
		case o.Skipped():
			e.log.Info("fault skipped", "bit", int(f), "fault", f.Name(), "code", f.Code(), "reason", o.Err)
		case o.Err != nil:
			e.log.Warn("fault failed", "bit", int(f), "fault", f.Name(), "code", f.Code(), "error", o.Err)
		}
		r.Outcomes = append(r.Outcomes, o)
	}
	return r
}

// Apply runs a single operator. Panics inside the operator are recovered
// into the outcome's error, and the graph is rebuilt afterwards either way.
func (e *Engine) Apply(f Fault) (o Outcome) {
	o = Outcome{Fault: f, Ran: f}
	if f >= NumFaults {
		o.Err = fmt.Errorf("inject: unknown fault bit %d", uint8(f))
		return o
	}

	e.fault = f
	defer func() {
		if r := recover(); r != nil {
			o.Err = fmt.Errorf("inject: %s panicked: %v", f.Name(), r)
		}
		e.rebuild()
	}()

	o.Mutations, o.Ran, o.Err = operators[f](e)
	if o.Err == nil && o.Mutations == 0 {
		o.Err = ErrNoTargets
	}
	return o
}

// operator mutates the model and returns the number of mutations and the
// fault that actually ran.
type operator func(e *Engine) (int, Fault, error)

var operators = [NumFaults]operator{
	TypeSwap:       (*Engine).typeSwap,
	BiasDisconnect: (*Engine).biasDisconnect,
	Bypass:         (*Engine).bypass,
	GlobalShort:    (*Engine).globalShort,
	TerminalOpen:   (*Engine).terminalOpen,
	RailConflict:   (*Engine).railConflict,
	DeviceShort:    (*Engine).deviceShort,
	PortFloat:      (*Engine).portFloat,
	BiasPath:       (*Engine).biasPath,
	SymmetryBreak:  (*Engine).symmetryBreak,
	LoopPhase:      (*Engine).loopPhase,
	Impedance:      (*Engine).impedance,
	Stack:          (*Engine).stack,
	Steering:       (*Engine).steering,
	Isolation:      (*Engine).isolation,
	Dropout:        (*Engine).dropout,
}

func (e *Engine) rebuild() {
	e.graph = e.model.Graph()
	for _, n := range e.graph.Nets() {
		e.observeNet(n)
	}
}

// observeNet advances the fresh-net counter past a net{k} name.
func (e *Engine) observeNet(name string) {
	if k, ok := netSuffix(name); ok && k > e.netSeq {
		e.netSeq = k
	}
}

func netSuffix(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, "net")
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	k, err := strconv.Atoi(digits)
	return k, err == nil
}

// freshNet returns a net name that no terminal or port has used in this
// session.
func (e *Engine) freshNet() string {
	e.netSeq++
	return "net" + strconv.Itoa(e.netSeq)
}

// merge moves every terminal on net from onto net to and returns the
// number of terminals moved.
func (e *Engine) merge(from, to string) int {
	if from == to {
		return 0
	}
	n := 0
	for _, c := range e.model.Components() {
		n += c.Rename(from, to)
	}
	return n
}

func (e *Engine) transistors() []*circuit.Component {
	return e.model.Transistors()
}

// mutated logs one mutation at debug level.
func (e *Engine) mutated(msg string, attrs ...any) {
	if !e.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	base := []any{"bit", int(e.fault), "fault", e.fault.Name(), "code", e.fault.Code()}
	e.log.Debug(msg, append(base, attrs...)...)
}

// connect reassigns one terminal and logs it.
func (e *Engine) connect(c *circuit.Component, t circuit.Terminal, net string) {
	old := c.Net(t)
	c.Connect(t, net)
	e.mutated("terminal reassigned", "component", c.Name, "terminal", t.String(), "from", old, "net", net)
}
