// Package inject applies structural faults to a parsed netlist.
//
// A Vector selects up to sixteen operators. Bits 0-7 are errors that break
// the circuit outright:
//
//	0  type-swap         flip nfet/pfet on random transistors
//	1  bias-disconnect   move devices off Vbias*/Ibias* nets
//	2  component-bypass  short a component's through nets, then detach it
//	3  global-short      merge random pairs of nets
//	4  terminal-open     float random terminals
//	5  rail-conflict     tie random nets to vdd! or gnd!
//	6  device-short      tie a transistor's drain to its source
//	7  port-float        detach everything from a port
//
// Bits 8-15 are warnings that degrade it:
//
//	8  bias-path         ground diode-connected devices (falls back to 1)
//	9  symmetry-break    rebind a device parameter to another value
//	10 loop-phase        swap Vinp/Vinn and gate/drain
//	11 impedance         shunt nets to gnd! through small resistors
//	12 stack             short stacked devices (falls back to 6)
//	13 steering          rebind nfin
//	14 isolation         insert series or stray devices
//	15 dropout           float the body terminal
//
// Every random choice comes from the *rand.Rand passed to New, so a
// (netlist, seed, vector) triple always yields the same output. Operators
// run in bit order; one that finds no targets or fails is recorded in the
// Report and the rest still run.
package inject
