package netlist

import (
	"strconv"
	"strings"
)

// ReservedPrefixes are parameter name prefixes whose values are left as
// {{name}} templates for a later rendering stage, in canonical output order.
var ReservedPrefixes = []string{"nA", "nB", "nR", "nC"}

// parametersKeyword starts a parameter declaration line.
const parametersKeyword = "parameters"

// splitReserved splits a reserved parameter name such as "nB12" into its
// prefix and numeric suffix.
func splitReserved(name string) (string, int, bool) {
	for _, p := range ReservedPrefixes {
		if !strings.HasPrefix(name, p) || len(name) == len(p) {
			continue
		}
		n, err := strconv.Atoi(name[len(p):])
		if err != nil || n < 0 || name[len(p)] == '+' || name[len(p)] == '-' {
			return "", 0, false
		}
		return p, n, true
	}
	return "", 0, false
}

// IsReserved reports whether name is a reserved-prefix parameter.
func IsReserved(name string) bool {
	_, _, ok := splitReserved(name)
	return ok
}

func isReservedPrefix(prefix string) bool {
	for _, p := range ReservedPrefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

// paramTable holds declared and pending parameters plus the name counters.
type paramTable struct {
	next map[string]int // reserved prefix -> next suffix

	declared      map[string]string
	declaredOrder []string

	pending      map[string]string
	pendingOrder []string

	adhoc map[string]int // last suffix handed out per free-form prefix
}

func newParamTable() *paramTable {
	t := &paramTable{
		next:     make(map[string]int, len(ReservedPrefixes)),
		declared: make(map[string]string),
		pending:  make(map[string]string),
		adhoc:    make(map[string]int),
	}
	for _, p := range ReservedPrefixes {
		t.next[p] = 1
	}
	return t
}

// isParametersLine reports whether a trimmed line is a parameter declaration.
func isParametersLine(line string) bool {
	return strings.HasPrefix(line, parametersKeyword+" ")
}

// parseAssignments tokenizes "parameters k=v ..." into ordered pairs.
func parseAssignments(line string) (keys []string, values map[string]string) {
	values = make(map[string]string)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, values
	}
	for _, tok := range fields[1:] {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || k == "" {
			continue
		}
		if _, seen := values[k]; seen {
			continue
		}
		keys = append(keys, k)
		values[k] = v
	}
	return keys, values
}

// seed records the declarations found in the pre-topology text and moves
// each reserved counter past the largest suffix already in use.
func (t *paramTable) seed(pre string) {
	for _, raw := range strings.Split(pre, "\n") {
		line := strings.TrimSpace(raw)
		if !isParametersLine(line) {
			continue
		}
		keys, values := parseAssignments(line)
		for _, k := range keys {
			if _, ok := t.declared[k]; !ok {
				t.declared[k] = values[k]
				t.declaredOrder = append(t.declaredOrder, k)
			}
			if p, n, ok := splitReserved(k); ok && n+1 > t.next[p] {
				t.next[p] = n + 1
			}
		}
	}
}

func (t *paramTable) register(name, value string) {
	if _, ok := t.pending[name]; !ok {
		t.pendingOrder = append(t.pendingOrder, name)
	}
	t.pending[name] = value
	if p, n, ok := splitReserved(name); ok && n+1 > t.next[p] {
		t.next[p] = n + 1
	}
}

func (t *paramTable) lookup(name string) (string, bool) {
	if v, ok := t.pending[name]; ok {
		return v, true
	}
	v, ok := t.declared[name]
	return v, ok
}

func (t *paramTable) allocate(prefix string, taken func(string) bool) string {
	if isReservedPrefix(prefix) {
		name := prefix + strconv.Itoa(t.next[prefix])
		t.next[prefix]++
		return name
	}
	n := t.adhoc[prefix] + 1
	for taken(prefix + strconv.Itoa(n)) {
		n++
	}
	t.adhoc[prefix] = n
	return prefix + strconv.Itoa(n)
}
