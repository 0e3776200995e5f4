package circuit

// Edge links a component (by index into the component slice the graph was
// built from) to a net through one of its terminals.
type Edge struct {
	Component int
	Net       string
	Terminal  Terminal
}

// Graph is the bipartite component/net incidence view of a circuit.
//
// A Graph never owns or mutates components; it only holds indices into the
// slice passed to Build. Any structural edit invalidates it, and callers
// are expected to Build a fresh one rather than patch it.
type Graph struct {
	size   int
	edges  []Edge
	nets   []string         // first-appearance order
	byNet  map[string][]int // net -> edge indices
	byComp [][]int          // component -> edge indices
}

// Build derives the incidence graph from the current terminal assignments.
func Build(components []*Component) *Graph {
	g := &Graph{
		size:   len(components),
		byNet:  make(map[string][]int),
		byComp: make([][]int, len(components)),
	}
	for ci, c := range components {
		for ti, t := range c.Terminals() {
			net := c.nets[ti]
			if net == "" {
				continue
			}
			if _, ok := g.byNet[net]; !ok {
				g.nets = append(g.nets, net)
			}
			ei := len(g.edges)
			g.edges = append(g.edges, Edge{Component: ci, Net: net, Terminal: t})
			g.byNet[net] = append(g.byNet[net], ei)
			g.byComp[ci] = append(g.byComp[ci], ei)
		}
	}
	return g
}

// Nets returns every net referenced by at least one terminal, in order of
// first appearance (component order, then terminal order).
func (g *Graph) Nets() []string {
	out := make([]string, len(g.nets))
	copy(out, g.nets)
	return out
}

// HasNet reports whether any terminal is attached to net.
func (g *Graph) HasNet(net string) bool {
	_, ok := g.byNet[net]
	return ok
}

// Edges returns a copy of all edges.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Attachments returns the edges that touch net, in component order.
func (g *Graph) Attachments(net string) []Edge {
	idx := g.byNet[net]
	out := make([]Edge, len(idx))
	for i, ei := range idx {
		out[i] = g.edges[ei]
	}
	return out
}

// ComponentsOn returns the distinct components touching net, in component
// order.
func (g *Graph) ComponentsOn(net string) []int {
	var out []int
	last := -1
	for _, ei := range g.byNet[net] {
		ci := g.edges[ei].Component
		if ci != last {
			out = append(out, ci)
			last = ci
		}
	}
	return out
}

// EdgesOf returns the edges of component ci in terminal order.
func (g *Graph) EdgesOf(ci int) []Edge {
	if ci < 0 || ci >= g.size {
		return nil
	}
	idx := g.byComp[ci]
	out := make([]Edge, len(idx))
	for i, ei := range idx {
		out[i] = g.edges[ei]
	}
	return out
}

// Degree returns the number of terminals attached to net.
func (g *Graph) Degree(net string) int {
	return len(g.byNet[net])
}

// ComponentCount returns the number of component nodes.
func (g *Graph) ComponentCount() int {
	return g.size
}
