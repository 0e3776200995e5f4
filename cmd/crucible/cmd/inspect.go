package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/inject"
	"github.com/OpenTraceLab/OpenTraceCrucible/pkg/netlist"
)

var (
	// Flags for inspect command
	inspectJSON  bool
	inspectKiCad string
)

// CircuitInfo is the structured summary printed by inspect --json
type CircuitInfo struct {
	Name           string           `json:"name"`
	Ports          []string         `json:"ports"`
	Components     []ComponentInfo  `json:"components"`
	Nets           []NetInfo        `json:"nets"`
	BiasNets       []string         `json:"bias_nets"`
	DiodeConnected []string         `json:"diode_connected"`
	Islands        []circuit.Island `json:"islands"`
	Dropped        []string         `json:"dropped,omitempty"`
}

// ComponentInfo describes one component
type ComponentInfo struct {
	Name   string            `json:"name"`
	Kind   string            `json:"kind"`
	Model  string            `json:"model,omitempty"`
	Nets   map[string]string `json:"nets"`
	Params string            `json:"params,omitempty"`
}

// NetInfo describes one net
type NetInfo struct {
	Name      string `json:"name"`
	Terminals int    `json:"terminals"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <input.scs>",
	Short: "Show the structure of a netlist",
	Long: `Parse a netlist and print its ports, components, nets, bias nets,
diode-connected devices and connected islands.

Examples:
  crucible inspect amp.scs
  crucible inspect amp.scs --json
  crucible inspect amp.scs --kicad amp.net`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON")
	inspectCmd.Flags().StringVarP(&inspectKiCad, "kicad", "k", "",
		"write a KiCad-style connectivity netlist to this file")
}

func runInspect(cmd *cobra.Command, args []string) error {
	opts := []netlist.Option{}
	if strict {
		opts = append(opts, netlist.Strict())
	}
	m, err := netlist.ParseFile(args[0], opts...)
	if err != nil {
		return fmt.Errorf("failed to parse netlist: %w", err)
	}

	info := describe(m)

	if inspectKiCad != "" {
		out, err := circuit.ExportKiCad(info.Name, m.Components())
		if err != nil {
			return fmt.Errorf("failed to export KiCad netlist: %w", err)
		}
		if err := os.WriteFile(inspectKiCad, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write KiCad netlist: %w", err)
		}
	}

	if inspectJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printInfo(info)
	if inspectKiCad != "" {
		fmt.Printf("\nKiCad netlist written to %s\n", inspectKiCad)
	}
	return nil
}

func describe(m *netlist.Model) CircuitInfo {
	g := m.Graph()
	info := CircuitInfo{
		Name:     m.CircuitName,
		Ports:    m.Ports,
		BiasNets: inject.BiasNets(g),
		Islands:  circuit.Islands(m.Components()),
	}

	for _, c := range m.Components() {
		ci := ComponentInfo{
			Name:   c.Name,
			Kind:   c.Kind.String(),
			Model:  c.Model,
			Nets:   make(map[string]string),
			Params: c.RawParams,
		}
		for _, t := range c.Terminals() {
			ci.Nets[t.String()] = c.Net(t)
		}
		info.Components = append(info.Components, ci)
	}
	for _, net := range g.Nets() {
		info.Nets = append(info.Nets, NetInfo{Name: net, Terminals: g.Degree(net)})
	}
	for _, c := range inject.DiodeConnected(m.Components()) {
		info.DiodeConnected = append(info.DiodeConnected, c.Name)
	}
	for _, d := range m.Dropped() {
		info.Dropped = append(info.Dropped, d.Line)
	}
	return info
}

func printInfo(info CircuitInfo) {
	fmt.Printf("Circuit: %s\n", info.Name)
	fmt.Printf("Ports: %s\n", strings.Join(info.Ports, " "))

	fmt.Printf("\nComponents: %d\n", len(info.Components))
	for _, c := range info.Components {
		label := c.Kind
		if c.Model != "" {
			label = c.Model
		}
		var nets []string
		for _, t := range terminalOrder(c.Kind) {
			nets = append(nets, t+"="+c.Nets[t])
		}
		fmt.Printf("  %-12s %-10s %s\n", c.Name, label, strings.Join(nets, " "))
	}

	fmt.Printf("\nNets: %d\n", len(info.Nets))
	for _, n := range info.Nets {
		fmt.Printf("  %-12s %d terminal(s)\n", n.Name, n.Terminals)
	}

	fmt.Printf("\nBias nets: %s\n", listOrNone(info.BiasNets))
	fmt.Printf("Diode-connected: %s\n", listOrNone(info.DiodeConnected))

	fmt.Printf("\nIslands: %d\n", len(info.Islands))
	for _, isl := range info.Islands {
		fmt.Printf("  #%d nets=[%s] components=[%s]\n",
			isl.ID, strings.Join(isl.Nets, " "), strings.Join(isl.Components, " "))
	}

	if len(info.Dropped) > 0 {
		fmt.Printf("\nDropped lines: %d\n", len(info.Dropped))
		for _, line := range info.Dropped {
			fmt.Printf("  %s\n", line)
		}
	}
}

func terminalOrder(kind string) []string {
	if kind == circuit.Transistor.String() {
		return []string{"D", "G", "S", "B"}
	}
	return []string{"P", "N"}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, " ")
}
