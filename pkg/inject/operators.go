package inject

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/circuit"
)

// Name prefixes for inserted components.
const (
	namePrefixFaultRes = "R_fault_"
	namePrefixInsRes   = "R_ins_"
	namePrefixInsCap   = "C_ins_"
	namePrefixInsMOS   = "M_ins_"
	namePrefixChaos    = "M_chaos_"

	insertedModel = "nfet"
)

// Template defaults registered for new parameters.
const (
	defaultLength    = "100n"
	defaultFins      = "4"
	defaultSeriesRes = "1k"
	defaultSeriesCap = "100f"
	defaultShuntRes  = "1"
	defaultSteerFins = "1"
	defaultMult      = "2"
)

// seriesWeight is the probability that an isolation insertion goes in
// series with an existing net rather than being wired at random.
const seriesWeight = 0.6

var errNoTransistors = fmt.Errorf("%w: circuit has no transistors", ErrNoTargets)

// IsBiasNet reports whether net is a bias reference (Vbias* or Ibias*).
func IsBiasNet(net string) bool {
	return strings.HasPrefix(net, "Vbias") || strings.HasPrefix(net, "Ibias")
}

// BiasNets returns the bias nets of g in graph order.
func BiasNets(g *circuit.Graph) []string {
	var out []string
	for _, net := range g.Nets() {
		if IsBiasNet(net) {
			out = append(out, net)
		}
	}
	return out
}

// DiodeConnected returns the transistors whose gate and drain share a net.
func DiodeConnected(components []*circuit.Component) []*circuit.Component {
	var out []*circuit.Component
	for _, c := range components {
		if c.Kind == circuit.Transistor && c.Net(circuit.Gate) == c.Net(circuit.Drain) {
			out = append(out, c)
		}
	}
	return out
}

// componentsOn returns the components attached to net in the current graph.
func (e *Engine) componentsOn(net string) []*circuit.Component {
	comps := e.model.Components()
	idx := e.graph.ComponentsOn(net)
	out := make([]*circuit.Component, len(idx))
	for i, ci := range idx {
		out[i] = comps[ci]
	}
	return out
}

func (e *Engine) setDeviceParam(c *circuit.Component, key, value string) {
	c.RawParams = setParam(c.RawParams, key, value)
	e.mutated("parameter rewritten", "component", c.Name, "param", key, "value", value)
}

func (e *Engine) insert(c *circuit.Component) error {
	if err := e.model.AddComponent(c); err != nil {
		return err
	}
	e.mutated("component inserted", "component", c.Name, "kind", c.Kind.String(), "net", strings.Join(c.Nets(), " "))
	return nil
}

// deviceGeometry registers fresh length and fin parameters for an inserted
// transistor.
func (e *Engine) deviceGeometry() string {
	l := e.reserveParam(prefixLength, defaultLength)
	nf := e.reserveParam(prefixWidth, defaultFins)
	return "l=" + l + " nfin=" + nf
}

func (e *Engine) typeSwap() (int, Fault, error) {
	ts := e.transistors()
	if len(ts) == 0 {
		return 0, TypeSwap, errNoTransistors
	}
	targets := sampleTargets(e.rng, ts)
	for _, c := range targets {
		c.FlipPolarity()
		e.mutated("polarity flipped", "component", c.Name, "polarity", c.Polarity.String())
	}
	return len(targets), TypeSwap, nil
}

func (e *Engine) biasDisconnect() (int, Fault, error) {
	bias := BiasNets(e.graph)
	if len(bias) == 0 {
		return 0, BiasDisconnect, fmt.Errorf("%w: no Vbias/Ibias nets", ErrNoTargets)
	}

	n := 0
	for _, net := range sampleTargets(e.rng, bias) {
		for _, c := range sampleTargets(e.rng, e.componentsOn(net)) {
			fresh := e.freshNet()
			for _, t := range c.Terminals() {
				if c.Net(t) == net {
					e.connect(c, t, fresh)
					n++
				}
			}
		}
		e.rebuild()
	}
	return n, BiasDisconnect, nil
}

func (e *Engine) bypass() (int, Fault, error) {
	comps := e.model.Components()
	if len(comps) == 0 {
		return 0, Bypass, fmt.Errorf("%w: circuit has no components", ErrNoTargets)
	}

	n := 0
	for _, c := range sampleTargets(e.rng, comps) {
		a, b := c.Kind.Through()
		from, to := c.Net(a), c.Net(b)
		moved := e.merge(from, to)
		e.mutated("component bypassed", "component", c.Name, "from", from, "net", to, "terminals", moved)
		n += moved
		for _, t := range c.Terminals() {
			e.connect(c, t, e.freshNet())
			n++
		}
	}
	return n, Bypass, nil
}

func (e *Engine) globalShort() (int, Fault, error) {
	nets := e.graph.Nets()
	if len(nets) < 2 {
		return 0, GlobalShort, fmt.Errorf("%w: fewer than two nets", ErrNoTargets)
	}

	reps := 1 + e.rng.IntN(max(1, len(nets)/4))
	n := 0
	for i := 0; i < reps; i++ {
		nets = e.graph.Nets()
		if len(nets) < 2 {
			break
		}
		pair := sampleN(e.rng, nets, 2)
		moved := e.merge(pair[1], pair[0])
		e.mutated("nets shorted", "net", pair[0], "from", pair[1], "terminals", moved)
		n += moved
		e.rebuild()
	}
	return n, GlobalShort, nil
}

func (e *Engine) terminalOpen() (int, Fault, error) {
	comps := e.model.Components()
	if len(comps) == 0 {
		return 0, TerminalOpen, fmt.Errorf("%w: circuit has no components", ErrNoTargets)
	}

	n := 0
	for _, c := range sampleTargets(e.rng, comps) {
		for _, t := range sampleTargets(e.rng, c.Terminals()) {
			e.connect(c, t, e.freshNet())
			n++
		}
	}
	return n, TerminalOpen, nil
}

func (e *Engine) railConflict() (int, Fault, error) {
	nets := e.graph.Nets()
	if len(nets) == 0 {
		return 0, RailConflict, fmt.Errorf("%w: circuit has no nets", ErrNoTargets)
	}

	n := 0
	for _, net := range sampleTargets(e.rng, nets) {
		rail := RailGND
		if e.rng.Float64() > 0.5 {
			rail = RailVDD
		}
		moved := e.merge(net, rail)
		e.mutated("net tied to rail", "from", net, "net", rail, "terminals", moved)
		n += moved
	}
	return n, RailConflict, nil
}

func (e *Engine) deviceShort() (int, Fault, error) {
	ts := e.transistors()
	if len(ts) == 0 {
		return 0, DeviceShort, errNoTransistors
	}
	targets := sampleTargets(e.rng, ts)
	for _, c := range targets {
		e.connect(c, circuit.Drain, c.Net(circuit.Source))
	}
	return len(targets), DeviceShort, nil
}

func (e *Engine) portFloat() (int, Fault, error) {
	if len(e.model.Ports) == 0 {
		return 0, PortFloat, fmt.Errorf("%w: circuit has no ports", ErrNoTargets)
	}

	n := 0
	for _, port := range sampleTargets(e.rng, e.model.Ports) {
		fresh := e.freshNet()
		moved := e.merge(port, fresh)
		e.mutated("port detached", "from", port, "net", fresh, "terminals", moved)
		n += moved
	}
	return n, PortFloat, nil
}

func (e *Engine) biasPath() (int, Fault, error) {
	diodes := DiodeConnected(e.model.Components())
	if len(diodes) == 0 {
		e.log.Info("no diode-connected devices, falling back",
			"bit", int(BiasPath), "fault", BiasPath.Name(), "fallback", BiasDisconnect.Name())
		return e.biasDisconnect()
	}

	n := 0
	for _, c := range sampleTargets(e.rng, diodes) {
		e.connect(c, circuit.Gate, RailGND)
		e.connect(c, circuit.Drain, RailGND)
		n += 2
	}
	return n, BiasPath, nil
}

func (e *Engine) symmetryBreak() (int, Fault, error) {
	ts := e.transistors()
	if len(ts) == 0 {
		return 0, SymmetryBreak, errNoTransistors
	}

	var pool []string
	seen := make(map[string]bool)
	for _, c := range ts {
		for _, a := range assignments(c.RawParams) {
			if !seen[a.value] {
				seen[a.value] = true
				pool = append(pool, a.value)
			}
		}
	}

	targets := sampleTargets(e.rng, ts)
	if len(pool) < 2 {
		for _, c := range targets {
			e.setDeviceParam(c, "m", e.newParam("m", prefixMult, defaultMult))
		}
		return len(targets), SymmetryBreak, nil
	}

	for _, c := range targets {
		cands := assignments(c.RawParams)
		if len(cands) == 0 {
			e.setDeviceParam(c, "m", e.newParam("m", prefixSymMult, defaultMult))
			continue
		}
		a := choose(e.rng, cands)
		var options []string
		for _, v := range pool {
			if v != a.value {
				options = append(options, v)
			}
		}
		if len(options) == 0 {
			e.setDeviceParam(c, "m", e.newParam("m", prefixSymMult, defaultMult))
			continue
		}
		value := choose(e.rng, options)
		e.setDeviceParam(c, a.key, e.newParam(a.key, "pfault_sym_"+a.key+"_", value))
	}
	return len(targets), SymmetryBreak, nil
}

func (e *Engine) loopPhase() (int, Fault, error) {
	n := 0
	if e.rng.Float64() > 0.5 && e.model.HasPort(PortInP) && e.model.HasPort(PortInN) {
		for _, c := range e.model.Components() {
			for _, t := range c.Terminals() {
				switch c.Net(t) {
				case PortInP:
					e.connect(c, t, PortInN)
					n++
				case PortInN:
					e.connect(c, t, PortInP)
					n++
				}
			}
		}
	}

	for _, c := range sampleTargets(e.rng, e.transistors()) {
		g, d := c.Net(circuit.Gate), c.Net(circuit.Drain)
		e.connect(c, circuit.Gate, d)
		e.connect(c, circuit.Drain, g)
		n += 2
	}
	return n, LoopPhase, nil
}

func (e *Engine) impedance() (int, Fault, error) {
	if len(e.graph.Nets()) == 0 {
		return 0, Impedance, fmt.Errorf("%w: circuit has no nets", ErrNoTargets)
	}

	reps := 1 + e.rng.IntN(5)
	n := 0
	for i := 0; i < reps; i++ {
		net := choose(e.rng, e.graph.Nets())
		name := e.model.AllocateName(namePrefixFaultRes)
		r := circuit.NewPassive(circuit.Resistor, name, net, RailGND, "r="+e.reserveParam(prefixRes, defaultShuntRes))
		if err := e.insert(r); err != nil {
			return n, Impedance, err
		}
		n++
		e.rebuild()
	}
	return n, Impedance, nil
}

func (e *Engine) stack() (int, Fault, error) {
	comps := e.model.Components()
	var stacked []*circuit.Component
	for i, c := range comps {
		if c.Kind != circuit.Transistor {
			continue
		}
		for _, edge := range e.graph.Attachments(c.Net(circuit.Source)) {
			if edge.Component != i && edge.Terminal == circuit.Drain {
				stacked = append(stacked, c)
				break
			}
		}
	}

	if len(stacked) == 0 {
		e.log.Info("no stacked devices, falling back",
			"bit", int(Stack), "fault", Stack.Name(), "fallback", DeviceShort.Name())
		return e.deviceShort()
	}

	targets := sampleTargets(e.rng, stacked)
	for _, c := range targets {
		e.connect(c, circuit.Drain, c.Net(circuit.Source))
	}
	return len(targets), Stack, nil
}

func (e *Engine) steering() (int, Fault, error) {
	ts := e.transistors()
	if len(ts) == 0 {
		return 0, Steering, errNoTransistors
	}
	targets := sampleTargets(e.rng, ts)
	for _, c := range targets {
		e.setDeviceParam(c, "nfin", e.reserveParam(prefixWidth, defaultSteerFins))
	}
	return len(targets), Steering, nil
}

func (e *Engine) isolation() (int, Fault, error) {
	reps := 1 + e.rng.IntN(max(1, len(e.model.Components())/3))
	n := 0
	for i := 0; i < reps; i++ {
		var (
			k   int
			err error
		)
		if e.rng.Float64() < seriesWeight {
			k, err = e.insertSeries()
		} else {
			k, err = e.insertStray()
		}
		if err != nil {
			return n, Isolation, err
		}
		n += k
		e.rebuild()
	}
	return n, Isolation, nil
}

// insertSeries splits the attachments of a random net in two, moves the
// second half onto a fresh net and bridges the halves with a new resistor,
// capacitor or pass transistor.
func (e *Engine) insertSeries() (int, error) {
	nets := e.graph.Nets()
	if len(nets) == 0 {
		return 0, nil
	}
	target := choose(e.rng, nets)

	att := e.graph.Attachments(target)
	e.rng.Shuffle(len(att), func(i, j int) { att[i], att[j] = att[j], att[i] })
	split := 1
	if len(att) > 1 {
		split = len(att) / 2
	}

	fresh := e.freshNet()
	comps := e.model.Components()
	n := 0
	for _, a := range att[split:] {
		e.connect(comps[a.Component], a.Terminal, fresh)
		n++
	}

	var dev *circuit.Component
	switch e.rng.IntN(3) {
	case 0:
		name := e.model.AllocateName(namePrefixInsRes)
		dev = circuit.NewPassive(circuit.Resistor, name, target, fresh, "r="+e.reserveParam(prefixRes, defaultSeriesRes))
	case 1:
		name := e.model.AllocateName(namePrefixInsCap)
		dev = circuit.NewPassive(circuit.Capacitor, name, target, fresh, "c="+e.reserveParam(prefixCap, defaultSeriesCap))
	default:
		name := e.model.AllocateName(namePrefixInsMOS)
		dev = circuit.NewTransistor(name, insertedModel, target, RailVDD, fresh, RailGND, e.deviceGeometry())
	}
	if err := e.insert(dev); err != nil {
		return n, err
	}
	return n + 1, nil
}

// insertStray adds a transistor wired to four distinct random nets.
func (e *Engine) insertStray() (int, error) {
	nets := e.graph.Nets()
	if len(nets) < 4 {
		e.mutated("stray insertion skipped", "nets", len(nets))
		return 0, nil
	}
	pick := sampleN(e.rng, nets, 4)
	name := e.model.AllocateName(namePrefixChaos)
	dev := circuit.NewTransistor(name, insertedModel, pick[0], pick[1], pick[2], pick[3], e.deviceGeometry())
	if err := e.insert(dev); err != nil {
		return 0, err
	}
	return 1, nil
}

func (e *Engine) dropout() (int, Fault, error) {
	ts := e.transistors()
	if len(ts) == 0 {
		return 0, Dropout, errNoTransistors
	}
	targets := sampleTargets(e.rng, ts)
	for _, c := range targets {
		e.connect(c, circuit.Body, e.freshNet())
		e.rebuild()
	}
	return len(targets), Dropout, nil
}
