package netlist

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/circuit"
)

// reservedRef finds reserved parameter references inside parameter text.
var reservedRef = regexp.MustCompile(`\b(?:nA|nB|nR|nC)[0-9]+\b`)

// probeSuffixes are the operating-point probes saved for every transistor.
var probeSuffixes = []string{"gm", "vgs", "vds", "ids", "region"}

// saveAnchor marks the save directive that lists transistor probes.
const saveAnchor = "V0:p"

// Regenerate renders the model back to netlist text. An empty name keeps
// the parsed circuit name.
func (m *Model) Regenerate(name string) string {
	if name == "" {
		name = m.CircuitName
	}

	lines := make([]string, 0, len(m.components)+2)
	header := "*--- " + name
	if len(m.Ports) > 0 {
		header += " " + strings.Join(m.Ports, " ")
	}
	lines = append(lines, header+" ---*")
	if m.PinInfo != "" {
		lines = append(lines, m.PinInfo)
	}
	for _, c := range m.components {
		lines = append(lines, FormatComponent(c))
	}

	var b strings.Builder
	b.WriteString(m.renderPre())
	b.WriteString(TopologyMarker)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(m.renderPost())
	return b.String()
}

// FormatComponent renders one component line.
func FormatComponent(c *circuit.Component) string {
	parts := []string{c.Name}

	nets := c.Nets()
	if c.Style.Grouped {
		parts = append(parts, "("+strings.Join(nets, " ")+")")
	} else {
		parts = append(parts, nets...)
	}

	switch c.Kind {
	case circuit.Transistor:
		model := c.Model
		if model == "" {
			model = c.Polarity.String()
		}
		parts = append(parts, model)
	case circuit.Resistor, circuit.Capacitor:
		if c.Style.Keyword {
			parts = append(parts, c.Kind.String())
		}
	default:
		panic(fmt.Sprintf("netlist: unhandled kind %v", c.Kind))
	}

	if c.RawParams != "" {
		parts = append(parts, c.RawParams)
	}
	return strings.Join(parts, " ")
}

// usedReserved collects the reserved parameters referenced by any
// component's parameter text.
func (m *Model) usedReserved() map[string]bool {
	used := make(map[string]bool)
	for _, c := range m.components {
		for _, ref := range reservedRef.FindAllString(c.RawParams, -1) {
			used[ref] = true
		}
	}
	return used
}

// parameterLine merges declared and pending parameters into the canonical
// declaration: free-form keys in first-seen order, then the used reserved
// parameters grouped by prefix in ascending numeric order.
func (m *Model) parameterLine(declaredKeys []string, declared map[string]string) string {
	values := make(map[string]string)
	var misc []string
	reserved := make(map[string]bool)
	var reservedOrder []string
	addReserved := func(k string) {
		if !reserved[k] {
			reserved[k] = true
			reservedOrder = append(reservedOrder, k)
		}
	}

	for _, k := range declaredKeys {
		if IsReserved(k) {
			addReserved(k)
			continue
		}
		values[k] = declared[k]
		misc = append(misc, k)
	}
	for _, k := range m.params.pendingOrder {
		if IsReserved(k) {
			addReserved(k)
			continue
		}
		if _, ok := values[k]; !ok {
			misc = append(misc, k)
		}
		values[k] = m.params.pending[k]
	}

	used := m.usedReserved()
	groups := make(map[string][]string)
	for _, k := range reservedOrder {
		if !used[k] {
			continue
		}
		p, _, _ := splitReserved(k)
		groups[p] = append(groups[p], k)
	}

	parts := make([]string, 0, len(misc)+len(reserved))
	for _, k := range misc {
		parts = append(parts, k+"="+values[k])
	}
	for _, p := range ReservedPrefixes {
		keys := groups[p]
		// nA01 and nA1 share a suffix; the name breaks the tie.
		sort.SliceStable(keys, func(i, j int) bool {
			_, a, _ := splitReserved(keys[i])
			_, b, _ := splitReserved(keys[j])
			if a != b {
				return a < b
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys {
			parts = append(parts, k+"={{"+k+"}}")
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return parametersKeyword + " " + strings.Join(parts, " ")
}

// renderPre rewrites the first parameter declaration of the pre-topology
// text, or inserts one at its end when none exists.
func (m *Model) renderPre() string {
	lines := strings.Split(m.pre, "\n")
	idx := -1
	for i, raw := range lines {
		if isParametersLine(strings.TrimSpace(raw)) {
			idx = i
			break
		}
	}

	if idx >= 0 {
		keys, values := parseAssignments(strings.TrimSpace(lines[idx]))
		line := m.parameterLine(keys, values)
		if line == "" {
			lines = append(lines[:idx], lines[idx+1:]...)
		} else {
			lines[idx] = line
		}
		return strings.Join(lines, "\n")
	}

	line := m.parameterLine(nil, nil)
	if line == "" {
		return m.pre
	}
	if m.pre == "" || strings.HasSuffix(m.pre, "\n") {
		return m.pre + line + "\n"
	}
	return m.pre + "\n" + line + "\n"
}

// renderPost rewrites the transistor probe save directive; every other
// line passes through unchanged.
func (m *Model) renderPost() string {
	if !strings.Contains(m.post, saveAnchor) {
		return m.post
	}

	var probes []string
	for _, t := range m.Transistors() {
		for _, s := range probeSuffixes {
			probes = append(probes, t.Name+":"+s)
		}
	}

	lines := strings.Split(m.post, "\n")
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if !strings.HasPrefix(trimmed, "save ") || !strings.Contains(trimmed, saveAnchor) {
			continue
		}
		indent := raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]
		var kept []string
		for _, tok := range strings.Fields(trimmed) {
			if !isProbe(tok) {
				kept = append(kept, tok)
			}
		}
		lines[i] = indent + strings.Join(append(kept, probes...), " ")
	}
	return strings.Join(lines, "\n")
}

// isProbe reports whether tok is a per-device operating-point probe such as
// "MM0:gm".
func isProbe(tok string) bool {
	i := strings.LastIndexByte(tok, ':')
	if i <= 0 {
		return false
	}
	suffix := tok[i+1:]
	for _, s := range probeSuffixes {
		if suffix == s {
			return true
		}
	}
	return false
}
