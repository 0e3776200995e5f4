package inject

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidVector is returned for vector text that is not a 16-bit value.
var ErrInvalidVector = errors.New("inject: invalid fault vector")

// Vector is a 16-bit fault mask; bit i requests Fault(i).
type Vector uint16

// VectorOf builds a vector with the given faults set.
func VectorOf(faults ...Fault) Vector {
	var v Vector
	for _, f := range faults {
		v |= 1 << f
	}
	return v
}

// Has reports whether f is requested.
func (v Vector) Has(f Fault) bool {
	return f < NumFaults && v&(1<<f) != 0
}

// Faults returns the requested faults in increasing bit order.
func (v Vector) Faults() []Fault {
	var out []Fault
	for f := Fault(0); f < NumFaults; f++ {
		if v.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// String renders the vector as two underscore-joined 8-bit groups,
// most significant first.
func (v Vector) String() string {
	s := fmt.Sprintf("%016b", uint16(v))
	return s[:8] + "_" + s[8:]
}

// ParseVector reads a vector from user input. A "0b" prefix selects binary.
// Without one, a string of only 0s and 1s longer than one character (after
// removing underscores) is also read as binary; anything else is decimal.
// The second result reports when that rule decided a string that is also a
// valid decimal number, e.g. "11" or "101", so callers can warn about it.
func ParseVector(s string) (Vector, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, fmt.Errorf("%w: empty", ErrInvalidVector)
	}

	digits := strings.ReplaceAll(s, "_", "")
	base, ambiguous := 10, false
	switch {
	case strings.HasPrefix(digits, "0b") || strings.HasPrefix(digits, "0B"):
		digits, base = digits[2:], 2
	case len(digits) > 1 && isBinary(digits):
		base = 2
		ambiguous = !strings.Contains(s, "_")
	}

	n, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidVector, s)
	}
	return Vector(n), ambiguous, nil
}

func isBinary(s string) bool {
	for _, r := range s {
		if r != '0' && r != '1' {
			return false
		}
	}
	return true
}
