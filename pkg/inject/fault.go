package inject

import "fmt"

// Fault is one of the sixteen structural fault operators. Its value is the
// bit position it occupies in a Vector.
type Fault uint8

const (
	TypeSwap       Fault = iota // flip nfet/pfet
	BiasDisconnect              // cut devices off Vbias*/Ibias* nets
	Bypass                      // short a component's through nets and detach it
	GlobalShort                 // merge random net pairs
	TerminalOpen                // float random terminals
	RailConflict                // tie nets to vdd! or gnd!
	DeviceShort                 // D = S
	PortFloat                   // detach internals from a port
	BiasPath                    // diode-connected G/D to gnd!
	SymmetryBreak               // scramble a device parameter
	LoopPhase                   // swap inputs, swap G/D
	Impedance                   // low-value resistors to ground
	Stack                       // short a stacked device
	Steering                    // rewrite nfin
	Isolation                   // insert series or stray devices
	Dropout                     // float the body terminal

	NumFaults = 16
)

// BaseCode is the identifier of bit 0; bit i is reported as BaseCode+i.
const BaseCode = 240

var faultNames = [NumFaults]string{
	TypeSwap:       "type-swap",
	BiasDisconnect: "bias-disconnect",
	Bypass:         "component-bypass",
	GlobalShort:    "global-short",
	TerminalOpen:   "terminal-open",
	RailConflict:   "rail-conflict",
	DeviceShort:    "device-short",
	PortFloat:      "port-float",
	BiasPath:       "bias-path",
	SymmetryBreak:  "symmetry-break",
	LoopPhase:      "loop-phase",
	Impedance:      "impedance",
	Stack:          "stack",
	Steering:       "steering",
	Isolation:      "isolation",
	Dropout:        "dropout",
}

// Name returns the operator's short name.
func (f Fault) Name() string {
	if f < NumFaults {
		return faultNames[f]
	}
	return fmt.Sprintf("fault(%d)", uint8(f))
}

func (f Fault) String() string {
	return f.Name()
}

// Code returns the numeric fault identifier used in logs and labels.
func (f Fault) Code() int {
	return BaseCode + int(f)
}

// Severity classifies a fault.
type Severity uint8

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Severity reports Error for bits 0-7 and Warning for bits 8-15.
func (f Fault) Severity() Severity {
	if f >= BiasPath {
		return Warning
	}
	return Error
}

// FaultByName looks up a fault by its short name.
func FaultByName(name string) (Fault, bool) {
	for i, n := range faultNames {
		if n == name {
			return Fault(i), true
		}
	}
	return 0, false
}
