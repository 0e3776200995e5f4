package netlist

import (
	"fmt"
	"strings"
	"time"
)

// DefaultGenerator is the tag written into every provenance block.
const DefaultGenerator = "Generated By ASPECTOR Crucible"

// Provenance describes how a derivative netlist was produced.
type Provenance struct {
	Generator  string
	Source     string // base name of the seed netlist
	MasterSeed int64
	TaskSeed   int64
	Vector     string // rendered as XXXXXXXX_XXXXXXXX
	Date       time.Time
}

// Lines renders the provenance as netlist comment lines.
func (p Provenance) Lines() []string {
	gen := p.Generator
	if gen == "" {
		gen = DefaultGenerator
	}
	return []string{
		"* " + gen,
		"* Derivative Netlist: " + p.Source,
		fmt.Sprintf("* Master Seed: %d", p.MasterSeed),
		fmt.Sprintf("* Task Seed: %d", p.TaskSeed),
		"* Error Vector: " + p.Vector,
		"* Date: " + p.Date.Format(time.UnixDate),
	}
}

// Stamp inserts the provenance block right after the topology marker, or
// prepends it when the text has no marker.
func Stamp(text string, p Provenance) string {
	block := strings.Join(p.Lines(), "\n") + "\n"
	if strings.Contains(text, TopologyMarker) {
		return strings.Replace(text, TopologyMarker, TopologyMarker+"\n\n"+block, 1)
	}
	return block + "\n" + text
}
