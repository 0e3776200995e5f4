// Package netlist reads and writes the Spectre-style netlists used as seed
// circuits for fault injection.
//
// A file is split at the "*--- TOPOLOGY ---*" marker. Text before it and
// after an optional "*--- TESTBENCH ---*" marker is preserved verbatim,
// except for two rewrites done by Regenerate:
//   - the first "parameters" line is rebuilt from declared and registered
//     parameters, keeping only the reserved nA/nB/nR/nC parameters that a
//     component still references;
//   - a "save ... V0:p ..." directive is rebuilt to probe every transistor.
//
// Inside the topology block the header "*--- NAME PORT... ---*" names the
// circuit, "*.PININFO" is kept as is, other "*" lines are comments, and
// every remaining line is a component:
//
//	MM0 Voutp Vinp net1 gnd! nfet l=nA1 nfin=nB1
//	R0 (vdd! Voutp) resistor r=nR1
//	C0 Voutp gnd! c=nC1
//
// Lines that are not a transistor, resistor or capacitor are dropped and
// reported through Model.Dropped, unless parsing is Strict.
package netlist
