// Package circuit models the structural view of an analog netlist: the
// transistor, resistor and capacitor components, their terminal-to-net
// assignments, and the derived component/net incidence graph.
//
// Components are owned by whoever parsed them (normally a netlist.Model).
// A Graph built from a component slice only stores indices into it and is
// discarded and rebuilt after every structural edit:
//
//	g := circuit.Build(components)
//	for _, net := range g.Nets() {
//		fmt.Println(net, g.Degree(net))
//	}
//
// Islands groups nets connected through components using union-find, and
// ExportKiCad renders connectivity in a KiCad-style netlist.
package circuit
