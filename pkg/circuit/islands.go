package circuit

import "sort"

// Island is a set of nets joined to each other through component terminals.
type Island struct {
	ID         int      `json:"id"`
	Nets       []string `json:"nets"`
	Components []string `json:"components"`
}

// netUnion tracks which nets are joined, using union-find with path
// compression and union by rank.
type netUnion struct {
	parent map[string]string
	rank   map[string]int
}

func newNetUnion() *netUnion {
	return &netUnion{
		parent: make(map[string]string),
		rank:   make(map[string]int),
	}
}

func (u *netUnion) add(net string) {
	if _, ok := u.parent[net]; !ok {
		u.parent[net] = net
	}
}

func (u *netUnion) find(net string) string {
	root := net
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for net != root {
		next := u.parent[net]
		u.parent[net] = root
		net = next
	}
	return root
}

func (u *netUnion) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}

// Islands groups the circuit's nets into connected islands. Every terminal
// of a component joins its nets. Islands are ordered by their first net's
// appearance in the graph, and nets inside an island keep graph order.
func Islands(components []*Component) []Island {
	g := Build(components)
	u := newNetUnion()
	for _, net := range g.nets {
		u.add(net)
	}
	for ci := range components {
		edges := g.EdgesOf(ci)
		for i := 1; i < len(edges); i++ {
			u.union(edges[0].Net, edges[i].Net)
		}
	}

	index := make(map[string]int)
	var islands []Island
	for _, net := range g.nets {
		root := u.find(net)
		id, ok := index[root]
		if !ok {
			id = len(islands)
			index[root] = id
			islands = append(islands, Island{ID: id})
		}
		islands[id].Nets = append(islands[id].Nets, net)
	}
	for ci, c := range components {
		edges := g.EdgesOf(ci)
		if len(edges) == 0 {
			continue
		}
		id := index[u.find(edges[0].Net)]
		islands[id].Components = append(islands[id].Components, c.Name)
	}
	for i := range islands {
		sort.Strings(islands[i].Components)
	}
	return islands
}
