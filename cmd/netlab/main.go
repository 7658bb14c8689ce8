package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/netlab-sim/netlab"
	"github.com/spf13/cobra"
)

var (
	topoFile   string
	docForm    bool
	srcNode    string
	dstNode    string
	proto      string
	srcPort    int
	dstPort    int
	ttl        int
	maxHops    int
	traceLevel string
	traceOut   string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "netlab",
		Short: "Deterministic packet-level simulator for drag-and-drop network labs",
		Long: `netlab plays a single packet through a saved lab topology, honoring
	MAC learning, VLAN tagging, longest-prefix routing with TTL, and ordered
	access-control rules, and prints the hop-by-hop trace of what happened.`,
	}

	rootCmd.PersistentFlags().StringVar(&topoFile, "topology", "", "Topology file, json or yaml (required)")
	rootCmd.PersistentFlags().BoolVar(&docForm, "editor", false, "Treat the file as an editor document ({nodes, edges}) rather than engine form")
	rootCmd.MarkPersistentFlagRequired("topology")

	simCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play one packet from a source node to a destination node",
		RunE:  runSimulate,
	}
	simCmd.Flags().StringVar(&srcNode, "src", "", "Source node id (required)")
	simCmd.Flags().StringVar(&dstNode, "dst", "", "Destination node id (required)")
	simCmd.Flags().StringVar(&proto, "proto", "icmp", "Protocol: tcp, udp, icmp, arp, other")
	simCmd.Flags().IntVar(&srcPort, "src-port", 0, "Source port (tcp/udp)")
	simCmd.Flags().IntVar(&dstPort, "dst-port", 0, "Destination port (tcp/udp)")
	simCmd.Flags().IntVar(&ttl, "ttl", 0, "Initial TTL (default 64)")
	simCmd.Flags().IntVar(&maxHops, "max-hops", 0, "Hop cap (default 100)")
	simCmd.Flags().StringVar(&traceLevel, "trace-level", "detailed", "Trace level: minimal or detailed")
	simCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the trace to this file (json or yaml by extension)")
	simCmd.MarkFlagRequired("src")
	simCmd.MarkFlagRequired("dst")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Print analyzer diagnostics for a topology",
		RunE:  runValidate,
	}

	rootCmd.AddCommand(simCmd, validateCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// loadTopology reads the topology file in either form, selecting yaml
// or json by extension
func loadTopology() (*netlab.Topology, error) {
	ext := strings.ToLower(path.Ext(topoFile))
	useYAML := ext == ".yaml" || ext == ".yml"

	if docForm {
		doc, err := netlab.ReadDocument(topoFile, useYAML, nil)
		if err != nil {
			return nil, err
		}
		return doc.Topology(strings.TrimSuffix(path.Base(topoFile), ext)), nil
	}
	return netlab.ReadTopology(topoFile, useYAML, nil)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}

	opts := netlab.Options{MaxHops: maxHops, TraceLevel: traceLevel}
	spec := netlab.PacketSpec{
		SrcNode:  srcNode,
		DstNode:  dstNode,
		Protocol: proto,
		SrcPort:  srcPort,
		DstPort:  dstPort,
		TTL:      ttl,
	}

	sim := netlab.CreateSimulator(topo, &opts)
	result := sim.Simulate(spec)

	for _, hop := range result.Trace {
		fmt.Printf("%4d  %-14s %-10s %-10s %s\n",
			hop.Time, hop.NodeLabel, hop.IntrfcID, hop.Action, hop.Reason)
	}
	fmt.Printf("\nresult: success=%v delivered=%v blocked=%v loop=%v\nreason: %s\n",
		result.Success, result.Delivered, result.Blocked, result.Loop, result.Reason)

	if traceOut != "" {
		tr := netlab.CreateTraceRecorder(traceLevel)
		tr.AddHops(result.Trace)
		if werr := tr.WriteToFile(traceOut); werr != nil {
			return werr
		}
	}

	if !result.Success {
		os.Exit(1)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}

	sim := netlab.CreateSimulator(topo, nil)
	diags := sim.Analyzer().Validate()
	if len(diags) == 0 {
		fmt.Println("topology ok")
		return nil
	}
	for _, diag := range diags {
		fmt.Println(diag)
	}
	os.Exit(1)
	return nil
}
