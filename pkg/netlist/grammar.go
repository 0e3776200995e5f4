package netlist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/circuit"
)

// ErrUnrecognizedLine is returned for component lines whose instance name
// or token layout does not match a known element.
var ErrUnrecognizedLine = errors.New("netlist: unrecognized component line")

// ElementLexer splits a component line into words and parentheses.
// Parameter text is recovered from token offsets, so expressions such as
// "r=(1/(g+1p))" survive even though the lexer breaks them apart.
var ElementLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Open", Pattern: `\(`},
	{Name: "Close", Pattern: `\)`},
	{Name: "Word", Pattern: `[^\s()]+`},
})

// elementLine is a single component instance:
//
//	MM0 net1 Vinp net3 gnd! nfet l=nA1 nfin=nB1
//	R0 (vdd! Voutp) resistor r=nR1
type elementLine struct {
	Name  string      `@Word`
	Group *nodeGroup  `@@?`
	Tail  []*tailItem `@@*`
}

// nodeGroup is a parenthesized node list.
type nodeGroup struct {
	Nodes []string `Open @Word* Close`
}

type tailItem struct {
	Pos   lexer.Position
	Value string `@( Word | Open | Close )`
}

func (t *tailItem) paren() bool {
	return t.Value == "(" || t.Value == ")"
}

var elementParser = participle.MustBuild[elementLine](
	participle.Lexer(ElementLexer),
	participle.Elide("Whitespace"),
)

// parseElement turns one trimmed component line into a Component.
func parseElement(line string) (*circuit.Component, error) {
	kind, ok := circuit.KindForName(line)
	if !ok {
		return nil, fmt.Errorf("%w: unknown element letter in %q", ErrUnrecognizedLine, firstField(line))
	}

	el, err := elementParser.ParseString("", line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedLine, err)
	}

	var c *circuit.Component
	switch kind {
	case circuit.Transistor:
		c, err = buildTransistor(el, line)
	case circuit.Resistor, circuit.Capacitor:
		c, err = buildPassive(kind, el, line)
	default:
		panic(fmt.Sprintf("netlist: unhandled kind %v", kind))
	}
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedLine, err)
	}
	return c, nil
}

// splitNodes takes n node names either from the parenthesized group or from
// the leading bare words of the tail.
func splitNodes(el *elementLine, n int) ([]string, []*tailItem, bool, error) {
	if el.Group != nil {
		if len(el.Group.Nodes) != n {
			return nil, nil, true, fmt.Errorf("%w: %s expects %d nodes, got %d",
				ErrUnrecognizedLine, el.Name, n, len(el.Group.Nodes))
		}
		return el.Group.Nodes, el.Tail, true, nil
	}
	if len(el.Tail) < n {
		return nil, nil, false, fmt.Errorf("%w: %s expects %d nodes, got %d",
			ErrUnrecognizedLine, el.Name, n, len(el.Tail))
	}
	nodes := make([]string, n)
	for i := 0; i < n; i++ {
		if el.Tail[i].paren() {
			return nil, nil, false, fmt.Errorf("%w: %s has a stray parenthesis in its node list",
				ErrUnrecognizedLine, el.Name)
		}
		nodes[i] = el.Tail[i].Value
	}
	return nodes, el.Tail[n:], false, nil
}

func buildTransistor(el *elementLine, line string) (*circuit.Component, error) {
	nodes, rest, grouped, err := splitNodes(el, 4)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 || rest[0].paren() || strings.Contains(rest[0].Value, "=") {
		return nil, fmt.Errorf("%w: %s is missing its model", ErrUnrecognizedLine, el.Name)
	}
	// Any model token is kept; polarity may be unknown for PDK names.
	model := rest[0].Value

	c := circuit.NewTransistor(el.Name, model, nodes[0], nodes[1], nodes[2], nodes[3], paramsFrom(line, rest[1:]))
	c.Style.Grouped = grouped
	return c, nil
}

func buildPassive(kind circuit.Kind, el *elementLine, line string) (*circuit.Component, error) {
	nodes, rest, grouped, err := splitNodes(el, 2)
	if err != nil {
		return nil, err
	}

	keyword := false
	if len(rest) > 0 && rest[0].Value == kind.String() {
		keyword = true
		rest = rest[1:]
	}

	c := circuit.NewPassive(kind, el.Name, nodes[0], nodes[1], paramsFrom(line, rest))
	c.Style = circuit.Style{Grouped: grouped, Keyword: keyword}
	return c, nil
}

// paramsFrom returns the source text from the first remaining token to the
// end of the line with whitespace runs collapsed.
func paramsFrom(line string, rest []*tailItem) string {
	if len(rest) == 0 {
		return ""
	}
	off := rest[0].Pos.Offset
	if off < 0 || off > len(line) {
		return ""
	}
	return strings.Join(strings.Fields(line[off:]), " ")
}

func firstField(line string) string {
	if f := strings.Fields(line); len(f) > 0 {
		return f[0]
	}
	return ""
}
