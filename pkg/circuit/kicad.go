package circuit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/sexp"
)

// ExportKiCad renders the circuit's connectivity as a KiCad-style netlist
// s-expression. Only structure is exported; parameters are not.
//
// The result is parsed back and walked before it is returned. Every
// component, net and node must read back as written, so names that an
// s-expression reader would split (spaces, parentheses) are reported as an
// error instead of being written out.
func ExportKiCad(design string, components []*Component) (string, error) {
	g := Build(components)

	var b strings.Builder
	b.WriteString("(export (version D)\n")
	b.WriteString("  (design\n")
	fmt.Fprintf(&b, "    (source %s)\n", strconv.Quote(design))
	b.WriteString("    (tool \"crucible\")\n")
	b.WriteString("  )\n")

	b.WriteString("  (components\n")
	for _, c := range components {
		fmt.Fprintf(&b, "    (comp (ref %s) (value %s))\n", strconv.Quote(c.Name), strconv.Quote(kicadValue(c)))
	}
	b.WriteString("  )\n")

	b.WriteString("  (nets\n")
	for code, net := range g.nets {
		fmt.Fprintf(&b, "    (net (code %d) (name %s)\n", code+1, strconv.Quote(net))
		for _, e := range g.Attachments(net) {
			fmt.Fprintf(&b, "      (node (ref %s) (pin %s))\n",
				strconv.Quote(components[e.Component].Name), strconv.Quote(e.Terminal.String()))
		}
		b.WriteString("    )\n")
	}
	b.WriteString("  )\n")
	b.WriteString(")\n")

	out := b.String()
	if err := checkKiCad(out, components, g); err != nil {
		return "", fmt.Errorf("circuit: kicad export does not read back: %w", err)
	}
	return out, nil
}

func kicadValue(c *Component) string {
	if c.Kind == Transistor {
		return c.Model
	}
	return c.Kind.String()
}

// checkKiCad parses text and compares its components, nets and nodes with
// the circuit it was generated from.
func checkKiCad(text string, components []*Component, g *Graph) (err error) {
	// The parser panics on an unmatched ')'.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unbalanced expression: %v", r)
		}
	}()

	exprs, err := sexp.ParseString(text)
	if err != nil {
		return err
	}
	if len(exprs) != 1 {
		return fmt.Errorf("%d top-level expressions", len(exprs))
	}
	if head(exprs[0]) != "export" {
		return fmt.Errorf("top-level expression is %q, want export", head(exprs[0]))
	}

	comps := section(exprs[0], "components")
	if len(comps) != len(components) {
		return fmt.Errorf("%d components read back, want %d", len(comps), len(components))
	}
	for i, comp := range comps {
		ref, err := field(comp, "ref")
		if err != nil {
			return err
		}
		value, err := field(comp, "value")
		if err != nil {
			return err
		}
		if ref != components[i].Name || value != kicadValue(components[i]) {
			return fmt.Errorf("component %d reads back as %q %q", i, ref, value)
		}
	}

	nets := section(exprs[0], "nets")
	if len(nets) != len(g.nets) {
		return fmt.Errorf("%d nets read back, want %d", len(nets), len(g.nets))
	}
	for i, n := range nets {
		name, err := field(n, "name")
		if err != nil {
			return err
		}
		if name != g.nets[i] {
			return fmt.Errorf("net %d reads back as %q, want %q", i+1, name, g.nets[i])
		}

		var nodes []sexp.Sexp
		for _, child := range children(n) {
			if head(child) == "node" {
				nodes = append(nodes, child)
			}
		}
		want := g.Attachments(name)
		if len(nodes) != len(want) {
			return fmt.Errorf("net %q has %d nodes, want %d", name, len(nodes), len(want))
		}
		for j, node := range nodes {
			ref, err := field(node, "ref")
			if err != nil {
				return err
			}
			pin, err := field(node, "pin")
			if err != nil {
				return err
			}
			e := want[j]
			if ref != components[e.Component].Name || pin != e.Terminal.String() {
				return fmt.Errorf("net %q node %d reads back as %s.%s", name, j, ref, pin)
			}
		}
	}
	return nil
}

// head returns the leading symbol of a list, or the symbol itself. The
// parser collapses a one-element list such as "(components)" to its atom.
func head(s sexp.Sexp) string {
	switch v := s.(type) {
	case sexp.List:
		if len(v) > 0 {
			if sym, ok := v[0].(sexp.Symbol); ok {
				return string(sym)
			}
		}
	case sexp.Symbol:
		return string(v)
	}
	return ""
}

func children(s sexp.Sexp) []sexp.Sexp {
	if l, ok := s.(sexp.List); ok && len(l) > 0 {
		return l[1:]
	}
	return nil
}

// section returns the entries of the child list named name.
func section(s sexp.Sexp, name string) []sexp.Sexp {
	for _, child := range children(s) {
		if head(child) == name {
			return children(child)
		}
	}
	return nil
}

// field returns the unquoted value of the (key "value") child of s.
func field(s sexp.Sexp, key string) (string, error) {
	for _, child := range children(s) {
		if head(child) != key {
			continue
		}
		l, ok := child.(sexp.List)
		if !ok || len(l) != 2 {
			return "", fmt.Errorf("malformed %s in %v", key, s)
		}
		sym, ok := l[1].(sexp.Symbol)
		if !ok {
			return "", fmt.Errorf("malformed %s in %v", key, s)
		}
		v, err := strconv.Unquote(string(sym))
		if err != nil {
			return "", fmt.Errorf("%s %s is not a quoted string", key, sym)
		}
		return v, nil
	}
	return "", fmt.Errorf("missing %s in %v", key, s)
}
