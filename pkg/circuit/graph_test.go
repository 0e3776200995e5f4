package circuit

import (
	"reflect"
	"strings"
	"testing"
)

func sampleComponents() []*Component {
	return []*Component{
		NewTransistor("MM0", "nfet", "Voutp", "Vinp", "net1", "gnd!", "l=nA1 nfin=nB1"),
		NewTransistor("MM1", "nfet", "net2", "Vinn", "net1", "gnd!", "l=nA1 nfin=nB1"),
		NewPassive(Resistor, "R0", "vdd!", "Voutp", "r=nR1"),
	}
}

func TestBuildNetsOrder(t *testing.T) {
	g := Build(sampleComponents())

	want := []string{"Voutp", "Vinp", "net1", "gnd!", "net2", "Vinn", "vdd!"}
	if got := g.Nets(); !reflect.DeepEqual(got, want) {
		t.Errorf("Nets() = %v, want %v", got, want)
	}

	if g.ComponentCount() != 3 {
		t.Errorf("ComponentCount() = %d, want 3", g.ComponentCount())
	}
	if n := len(g.Edges()); n != 10 {
		t.Errorf("expected 10 edges, got %d", n)
	}
}

func TestAttachmentsAndComponentsOn(t *testing.T) {
	g := Build(sampleComponents())

	att := g.Attachments("gnd!")
	if len(att) != 2 {
		t.Fatalf("expected 2 attachments on gnd!, got %d", len(att))
	}
	for _, e := range att {
		if e.Terminal != Body {
			t.Errorf("unexpected terminal %s on gnd!", e.Terminal)
		}
	}

	if got := g.ComponentsOn("net1"); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("ComponentsOn(net1) = %v", got)
	}
	if got := g.ComponentsOn("missing"); len(got) != 0 {
		t.Errorf("ComponentsOn(missing) = %v, want empty", got)
	}
}

func TestComponentsOnDeduplicates(t *testing.T) {
	comps := []*Component{
		NewTransistor("MM0", "nfet", "x", "x", "s", "b", ""),
	}
	g := Build(comps)

	if got := g.ComponentsOn("x"); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("ComponentsOn(x) = %v, want [0]", got)
	}
	if g.Degree("x") != 2 {
		t.Errorf("Degree(x) = %d, want 2", g.Degree("x"))
	}
}

func TestBuildIsDerivedView(t *testing.T) {
	comps := sampleComponents()
	g := Build(comps)

	comps[2].Connect(Plus, "net9")

	if g.HasNet("net9") {
		t.Error("stale graph should not see net9")
	}
	if !Build(comps).HasNet("net9") {
		t.Error("rebuilt graph should see net9")
	}
}

func TestIslands(t *testing.T) {
	comps := []*Component{
		NewPassive(Resistor, "R0", "a", "b", ""),
		NewPassive(Resistor, "R1", "b", "c", ""),
		NewPassive(Capacitor, "C0", "x", "y", ""),
	}

	islands := Islands(comps)
	if len(islands) != 2 {
		t.Fatalf("expected 2 islands, got %d", len(islands))
	}
	if !reflect.DeepEqual(islands[0].Nets, []string{"a", "b", "c"}) {
		t.Errorf("island 0 nets = %v", islands[0].Nets)
	}
	if !reflect.DeepEqual(islands[0].Components, []string{"R0", "R1"}) {
		t.Errorf("island 0 components = %v", islands[0].Components)
	}
	if !reflect.DeepEqual(islands[1].Nets, []string{"x", "y"}) {
		t.Errorf("island 1 nets = %v", islands[1].Nets)
	}
}

func TestExportKiCad(t *testing.T) {
	out, err := ExportKiCad("amp", sampleComponents())
	if err != nil {
		t.Fatalf("ExportKiCad failed: %v", err)
	}

	for _, want := range []string{
		`(export (version D)`,
		`(source "amp")`,
		`(comp (ref "MM0") (value "nfet"))`,
		`(comp (ref "R0") (value "resistor"))`,
		`(net (code 1) (name "Voutp")`,
		`(node (ref "R0") (pin "N"))`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}
}

func TestExportKiCadReadsBack(t *testing.T) {
	for _, net := range []string{`a"b`, `a\b`, "né", "plain"} {
		comps := []*Component{NewPassive(Resistor, "R0", net, "gnd!", "")}
		if _, err := ExportKiCad("x", comps); err != nil {
			t.Errorf("net %q: unexpected error %v", net, err)
		}
	}

	for _, net := range []string{"a b", "x)", "x(", "two  spaces"} {
		comps := []*Component{NewPassive(Resistor, "R0", net, "gnd!", "")}
		if _, err := ExportKiCad("x", comps); err == nil {
			t.Errorf("net %q: expected export to be rejected", net)
		}
	}

	if _, err := ExportKiCad("empty", nil); err != nil {
		t.Errorf("empty circuit: %v", err)
	}
}

func TestCheckKiCadDetectsMismatch(t *testing.T) {
	comps := sampleComponents()
	out, err := ExportKiCad("amp", comps)
	if err != nil {
		t.Fatalf("ExportKiCad failed: %v", err)
	}
	g := Build(comps)

	tampered := []string{
		strings.Replace(out, `(ref "MM1")`, `(ref "MM9")`, 1),
		strings.Replace(out, `(node (ref "R0") (pin "N"))`, "", 1),
		strings.Replace(out, `(name "gnd!")`, `(name "vss")`, 1),
		strings.Replace(out, `(comp (ref "R0") (value "resistor"))`, "", 1),
	}
	for i, text := range tampered {
		if text == out {
			t.Fatalf("case %d: replacement did not apply", i)
		}
		if err := checkKiCad(text, comps, g); err == nil {
			t.Errorf("case %d: expected mismatch to be reported", i)
		}
	}
}
