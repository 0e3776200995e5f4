package netlist

import (
	"strings"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/circuit"
)

func TestRegenerateRoundTrip(t *testing.T) {
	m, err := Parse(simpleNetlist)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	out := m.Regenerate("")

	for _, line := range []string{
		"*--- amp Vinp Vinn Voutp ---*",
		"*.PININFO Vinp:I Vinn:I Voutp:O",
		"MM0 Voutp Vinp net1 gnd! nfet l=nA1 nfin=nB1",
		"MM1 net2 Vinn net1 gnd! nfet l=nA1 nfin=nB1",
		"R0 vdd! Voutp resistor r=nR1",
		"simulator lang=spectre",
		"V0 (vdd! gnd!) vsource dc=vdd type=dc",
		"parameters vdd={{vdd}} nA1={{nA1}} nB1={{nB1}} nR1={{nR1}}",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("regenerated text is missing %q", line)
		}
	}

	again, err := Parse(out)
	if err != nil {
		t.Fatalf("Failed to re-parse regenerated text: %v", err)
	}
	if again.Regenerate("") != out {
		t.Error("regenerate is not a fixed point")
	}
}

func TestRegeneratePreservesLineStyle(t *testing.T) {
	text := "*--- TOPOLOGY ---*\n*--- x a b ---*\nR1 (a b) resistor r=1k\nC0 a b c=1p\nMM0 (a b a b) nfet\n"
	m, err := Parse(text)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	out := m.Regenerate("")
	for _, line := range []string{"R1 (a b) resistor r=1k", "C0 a b c=1p", "MM0 (a b a b) nfet"} {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("expected %q in output:\n%s", line, out)
		}
	}
}

func TestRegenerateRename(t *testing.T) {
	m, err := Parse(simpleNetlist)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	out := m.Regenerate("amp_00000000_00000001_0")
	if !strings.Contains(out, "*--- amp_00000000_00000001_0 Vinp Vinn Voutp ---*") {
		t.Errorf("header was not renamed:\n%s", out)
	}
	if m.CircuitName != "amp" {
		t.Error("Regenerate must not change the parsed circuit name")
	}
}

func TestRegeneratePrunesUnusedReserved(t *testing.T) {
	m, err := Parse(simpleNetlist)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	m.Component("R0").RawParams = "r=1k"
	out := m.Regenerate("")

	if strings.Contains(out, "nR1=") {
		t.Errorf("unused nR1 should be pruned:\n%s", out)
	}
	if !strings.Contains(out, "parameters vdd={{vdd}} nA1={{nA1}} nB1={{nB1}}\n") {
		t.Errorf("unexpected parameter line:\n%s", out)
	}
}

func TestRegenerateCanonicalOrder(t *testing.T) {
	m, err := Parse(simpleNetlist)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	nc := m.AllocateName("nC")
	nb := m.AllocateName("nB")
	na := m.AllocateName("nA")
	m.RegisterParameter(nc, "100f")
	m.RegisterParameter(nb, "4")
	m.RegisterParameter(na, "100n")
	m.RegisterParameter("pfault_m_1", "2")

	mm1 := m.Component("MM1")
	mm1.RawParams = "l=" + na + " nfin=" + nb + " m=pfault_m_1"
	c := circuit.NewPassive(circuit.Capacitor, "C_ins_1", "net2", "gnd!", "c="+nc)
	if err := m.AddComponent(c); err != nil {
		t.Fatalf("AddComponent failed: %v", err)
	}

	out := m.Regenerate("")
	want := "parameters vdd={{vdd}} pfault_m_1=2 nA1={{nA1}} nA2={{nA2}} nB1={{nB1}} nB2={{nB2}} nR1={{nR1}} nC1={{nC1}}\n"
	if !strings.Contains(out, want) {
		t.Errorf("expected parameter line %q in:\n%s", want, out)
	}
	if !strings.HasSuffix(strings.SplitN(out, "*--- TESTBENCH ---*", 2)[0], "C_ins_1 net2 gnd! capacitor c=nC1\n\n\n") {
		t.Errorf("new component should be emitted last:\n%s", out)
	}
}

func TestRegenerateSharedSuffixOrder(t *testing.T) {
	text := "parameters nA1=2 nA01=1\n*--- TOPOLOGY ---*\n*--- x a ---*\nMM0 a a a a nfet l=nA1 w=nA01\n"
	want := "parameters nA01={{nA01}} nA1={{nA1}}\n"

	for i := 0; i < 50; i++ {
		m, err := Parse(text)
		if err != nil {
			t.Fatalf("Failed to parse: %v", err)
		}
		out := m.Regenerate("")
		if !strings.HasPrefix(out, want) {
			t.Fatalf("run %d: expected %q, got:\n%s", i, want, out)
		}
	}
}

func TestRegenerateInsertsParameterLine(t *testing.T) {
	text := "simulator lang=spectre\n*--- TOPOLOGY ---*\n*--- x a ---*\nR0 a gnd! resistor r=1k\n"
	m, err := Parse(text)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if out := m.Regenerate(""); strings.Contains(out, "parameters") {
		t.Errorf("no parameter line expected:\n%s", out)
	}

	name := m.AllocateName("nR")
	m.RegisterParameter(name, "1")
	m.Component("R0").RawParams = "r=" + name

	out := m.Regenerate("")
	if !strings.HasPrefix(out, "simulator lang=spectre\nparameters nR1={{nR1}}\n*--- TOPOLOGY ---*") {
		t.Errorf("parameter line not inserted before topology:\n%s", out)
	}
}

func TestRegenerateSaveDirective(t *testing.T) {
	m, err := Parse(simpleNetlist)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	out := m.Regenerate("")
	want := "save V0:p Voutp Vinp Vinn" +
		" MM0:gm MM0:vgs MM0:vds MM0:ids MM0:region" +
		" MM1:gm MM1:vgs MM1:vds MM1:ids MM1:region"
	if !strings.Contains(out, want+"\n") {
		t.Errorf("expected save line %q in:\n%s", want, out)
	}

	again, err := Parse(out)
	if err != nil {
		t.Fatalf("Failed to re-parse: %v", err)
	}
	if strings.Count(again.Regenerate(""), "MM0:gm") != 1 {
		t.Error("probes must not be duplicated on a second pass")
	}
}

func TestAllocateNameMonotonic(t *testing.T) {
	m, err := Parse(simpleNetlist)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	want := []string{"nA2", "nA3", "nA4"}
	for i, w := range want {
		if got := m.AllocateName("nA"); got != w {
			t.Errorf("allocation %d = %q, want %q", i, got, w)
		}
	}
	if got := m.AllocateName("nC"); got != "nC1" {
		t.Errorf("first nC = %q, want nC1", got)
	}
	if got := m.AllocateName("R_fault_"); got != "R_fault_1" {
		t.Errorf("first R_fault_ = %q", got)
	}
	if got := m.AllocateName("R_fault_"); got != "R_fault_2" {
		t.Errorf("second R_fault_ = %q", got)
	}

	m.RegisterParameter("pfault_m_1", "2")
	if got := m.AllocateName("pfault_m_"); got != "pfault_m_2" {
		t.Errorf("allocation should skip registered names, got %q", got)
	}
}

func TestAllocateNameSeededFromDeclarations(t *testing.T) {
	text := "parameters nA7={{nA7}} nA3={{nA3}} nB12=4 nAmp=1\n*--- TOPOLOGY ---*\n*--- x ---*\n"
	m, err := Parse(text)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if got := m.AllocateName("nA"); got != "nA8" {
		t.Errorf("nA = %q, want nA8", got)
	}
	if got := m.AllocateName("nB"); got != "nB13" {
		t.Errorf("nB = %q, want nB13", got)
	}
	if got := m.AllocateName("nR"); got != "nR1" {
		t.Errorf("nR = %q, want nR1", got)
	}
}

func TestIsReserved(t *testing.T) {
	tests := map[string]bool{
		"nA1":   true,
		"nC42":  true,
		"nA":    false,
		"nAmp":  false,
		"nA-1":  false,
		"vdd":   false,
		"nfin":  false,
		"nB007": true,
	}
	for name, want := range tests {
		if got := IsReserved(name); got != want {
			t.Errorf("IsReserved(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestStamp(t *testing.T) {
	p := Provenance{
		Source:     "diffamp.scs",
		MasterSeed: 42,
		TaskSeed:   43,
		Vector:     "00000000_00000101",
		Date:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	out := Stamp("pre\n*--- TOPOLOGY ---*\n\n*--- x ---*\n", p)
	want := "pre\n*--- TOPOLOGY ---*\n\n" +
		"* Generated By ASPECTOR Crucible\n" +
		"* Derivative Netlist: diffamp.scs\n" +
		"* Master Seed: 42\n" +
		"* Task Seed: 43\n" +
		"* Error Vector: 00000000_00000101\n" +
		"* Date: Fri Jan  2 03:04:05 UTC 2026\n" +
		"\n\n*--- x ---*\n"
	if out != want {
		t.Errorf("Stamp() =\n%q\nwant\n%q", out, want)
	}

	if got := Stamp("no marker", p); !strings.HasPrefix(got, "* Generated By") || !strings.HasSuffix(got, "\nno marker") {
		t.Errorf("Stamp without marker = %q", got)
	}
}
