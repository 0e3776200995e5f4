package inject

import "strings"

// assignment is one key=value token of a component's parameter text.
type assignment struct {
	index int // token position in strings.Fields(raw)
	key   string
	value string
}

func assignments(raw string) []assignment {
	var out []assignment
	for i, tok := range strings.Fields(raw) {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || k == "" {
			continue
		}
		out = append(out, assignment{index: i, key: k, value: v})
	}
	return out
}

// setParam replaces every key=... token in raw with key=value, or appends
// one when key is absent.
func setParam(raw, key, value string) string {
	tokens := strings.Fields(raw)
	found := false
	for i, tok := range tokens {
		if strings.HasPrefix(tok, key+"=") {
			tokens[i] = key + "=" + value
			found = true
		}
	}
	if !found {
		tokens = append(tokens, key+"="+value)
	}
	return strings.Join(tokens, " ")
}

// Parameter name prefixes for values introduced by the operators.
const (
	prefixLength = "nA"
	prefixWidth  = "nB"
	prefixRes    = "nR"
	prefixCap    = "nC"

	prefixMult    = "pfault_m_"
	prefixSymMult = "pfault_sym_m_"
)

// geometryPrefix maps a device parameter key to the reserved prefix that
// templates it. Keys without one get a literal ad-hoc parameter.
func geometryPrefix(key string) (string, bool) {
	switch key {
	case "l":
		return prefixLength, true
	case "nfin", "w":
		return prefixWidth, true
	}
	return "", false
}

// newParam allocates and registers a parameter for value, templated when the
// key has a geometry prefix and literal under adhoc otherwise.
func (e *Engine) newParam(key, adhoc, value string) string {
	prefix, ok := geometryPrefix(key)
	if !ok {
		prefix = adhoc
	}
	name := e.model.AllocateName(prefix)
	e.model.RegisterParameter(name, value)
	return name
}

// reserveParam allocates and registers a reserved-prefix parameter.
func (e *Engine) reserveParam(prefix, value string) string {
	name := e.model.AllocateName(prefix)
	e.model.RegisterParameter(name, value)
	return name
}
