package circuit

import (
	"fmt"
	"strings"
)

// Kind identifies the element type of a Component.
type Kind uint8

const (
	Transistor Kind = iota
	Resistor
	Capacitor
)

// String returns the netlist keyword for the kind.
func (k Kind) String() string {
	switch k {
	case Transistor:
		return "transistor"
	case Resistor:
		return "resistor"
	case Capacitor:
		return "capacitor"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// KindForName maps the leading letter of an instance name to a Kind.
// Instance names follow SPICE conventions: M for MOSFETs, R and C for passives.
func KindForName(name string) (Kind, bool) {
	if name == "" {
		return 0, false
	}
	switch name[0] {
	case 'M':
		return Transistor, true
	case 'R':
		return Resistor, true
	case 'C':
		return Capacitor, true
	}
	return 0, false
}

// Terminal is a named connection point on a component.
type Terminal uint8

const (
	Drain Terminal = iota
	Gate
	Source
	Body
	Plus
	Minus
)

var terminalNames = [...]string{
	Drain:  "D",
	Gate:   "G",
	Source: "S",
	Body:   "B",
	Plus:   "P",
	Minus:  "N",
}

func (t Terminal) String() string {
	if int(t) < len(terminalNames) {
		return terminalNames[t]
	}
	return fmt.Sprintf("Terminal(%d)", uint8(t))
}

var (
	transistorTerminals = []Terminal{Drain, Gate, Source, Body}
	passiveTerminals    = []Terminal{Plus, Minus}
)

// Terminals returns the ordered terminal set for a kind.
// The returned slice must not be modified.
func (k Kind) Terminals() []Terminal {
	switch k {
	case Transistor:
		return transistorTerminals
	case Resistor, Capacitor:
		return passiveTerminals
	}
	panic(fmt.Sprintf("circuit: unknown kind %d", uint8(k)))
}

// Through returns the two terminals a current flows through: D/S for
// transistors, P/N for passives.
func (k Kind) Through() (Terminal, Terminal) {
	switch k {
	case Transistor:
		return Drain, Source
	case Resistor, Capacitor:
		return Plus, Minus
	}
	panic(fmt.Sprintf("circuit: unknown kind %d", uint8(k)))
}

// Polarity is the channel type of a transistor.
type Polarity uint8

const (
	NFET Polarity = iota
	PFET
	UnknownPolarity // model token names no channel type, e.g. "g45n1svt"
)

func (p Polarity) String() string {
	switch p {
	case NFET:
		return "nfet"
	case PFET:
		return "pfet"
	}
	return "unknown"
}

// Flip returns the opposite polarity. An unknown polarity flips to PFET.
func (p Polarity) Flip() Polarity {
	if p == PFET {
		return NFET
	}
	return PFET
}

// polarityMarkers are channel names found inside PDK model tokens such as
// "sky130_fd_pr__nfet_01v8".
var polarityMarkers = []string{"nfet", "pfet", "nmos", "pmos", "nch", "pch"}

// polarityLetter returns the index of the letter that carries the polarity
// of model, or -1 when the model names none.
func polarityLetter(model string) int {
	if model == "" {
		return -1
	}
	switch model[0] {
	case 'n', 'N', 'p', 'P':
		return 0
	}
	lower := strings.ToLower(model)
	best := -1
	for _, m := range polarityMarkers {
		if i := strings.Index(lower, m); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}

// PolarityForModel infers the polarity from a model token such as
// "nfet", "pch", "nmos_lvt" or "sky130_fd_pr__pfet_01v8". The second
// result is false, with UnknownPolarity, when the token names none.
func PolarityForModel(model string) (Polarity, bool) {
	i := polarityLetter(model)
	if i < 0 {
		return UnknownPolarity, false
	}
	if model[i] == 'p' || model[i] == 'P' {
		return PFET, true
	}
	return NFET, true
}

// Style records how a component line was written so an untouched
// component regenerates the way it was read.
type Style struct {
	Grouped bool // nodes written as "(n1 n2 ...)"
	Keyword bool // passive type keyword present
}

// Component is a transistor, resistor or capacitor instance.
type Component struct {
	Name      string
	Kind      Kind
	Polarity  Polarity // transistors only
	Model     string   // transistor model token
	RawParams string
	Style     Style

	nets []string // indexed like Kind.Terminals()
}

// NewTransistor creates a transistor with all four terminals connected.
func NewTransistor(name, model string, d, g, s, b string, params string) *Component {
	pol, _ := PolarityForModel(model)
	return &Component{
		Name:      name,
		Kind:      Transistor,
		Polarity:  pol,
		Model:     model,
		RawParams: params,
		nets:      []string{d, g, s, b},
	}
}

// NewPassive creates a resistor or capacitor between p and n.
func NewPassive(kind Kind, name, p, n, params string) *Component {
	if kind == Transistor {
		panic("circuit: NewPassive called with Transistor kind")
	}
	return &Component{
		Name:      name,
		Kind:      kind,
		RawParams: params,
		Style:     Style{Keyword: true},
		nets:      []string{p, n},
	}
}

// Terminals returns the component's ordered terminals.
func (c *Component) Terminals() []Terminal {
	return c.Kind.Terminals()
}

func (c *Component) slot(t Terminal) int {
	for i, term := range c.Kind.Terminals() {
		if term == t {
			return i
		}
	}
	return -1
}

// Net returns the net attached to terminal t.
func (c *Component) Net(t Terminal) string {
	i := c.slot(t)
	if i < 0 {
		panic(fmt.Sprintf("circuit: %s has no terminal %s", c.Name, t))
	}
	return c.nets[i]
}

// Connect attaches terminal t to net.
func (c *Component) Connect(t Terminal, net string) {
	i := c.slot(t)
	if i < 0 {
		panic(fmt.Sprintf("circuit: %s has no terminal %s", c.Name, t))
	}
	c.nets[i] = net
}

// Nets returns a copy of the nets in terminal order.
func (c *Component) Nets() []string {
	out := make([]string, len(c.nets))
	copy(out, c.nets)
	return out
}

// Rename moves every terminal on net from to net to and reports how many
// terminals changed.
func (c *Component) Rename(from, to string) int {
	n := 0
	for i, net := range c.nets {
		if net == from {
			c.nets[i] = to
			n++
		}
	}
	return n
}

// FlipPolarity swaps nfet and pfet by rewriting the letter that carries the
// polarity, so "nch" becomes "pch" and "sky130_fd_pr__nfet_01v8" becomes
// "sky130_fd_pr__pfet_01v8". A model of unknown polarity is replaced by
// "pfet".
func (c *Component) FlipPolarity() {
	if c.Kind != Transistor {
		return
	}
	i := polarityLetter(c.Model)
	if c.Polarity == UnknownPolarity || i < 0 {
		c.Polarity = PFET
		c.Model = c.Polarity.String()
		return
	}

	c.Polarity = c.Polarity.Flip()
	lead := byte('n')
	if c.Polarity == PFET {
		lead = 'p'
	}
	if c.Model[i] >= 'A' && c.Model[i] <= 'Z' {
		lead -= 'a' - 'A'
	}
	c.Model = c.Model[:i] + string(lead) + c.Model[i+1:]
}

// Validate checks that every declared terminal has a net.
func (c *Component) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("circuit: component has no name")
	}
	terms := c.Kind.Terminals()
	if len(c.nets) != len(terms) {
		return fmt.Errorf("circuit: %s has %d nets for %d terminals", c.Name, len(c.nets), len(terms))
	}
	for i, t := range terms {
		if c.nets[i] == "" {
			return fmt.Errorf("circuit: %s terminal %s is unconnected", c.Name, t)
		}
	}
	return nil
}
