// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/ava-labs/counterflood/cmd/floodsim/sim"
	"github.com/ava-labs/counterflood/flood"
	"github.com/ava-labs/counterflood/utils/logging"
)

func init() {
	cobra.EnablePrefixMatching = true
}

func main() {
	rootCmd := newCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "floodsim failed %v\n", err)
		os.Exit(1)
	}
}

var (
	topologyName string
	topologySize int
	topologyFile string

	counts     []uint
	maxDelay   time.Duration
	history    int
	broadcasts int
	interval   time.Duration
	trials     int
	seed       uint64
	inboxSize  int
	logLevel   = logging.Off
)

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "floodsim",
		Short:        "Compares flood suppression thresholds on simulated topologies",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runFunc,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&topologyName, "topology", "t", "grid", "Topology to simulate, one of {line, ring, grid}")
	flags.IntVarP(&topologySize, "size", "n", 5, "Nodes in a line or ring, side of a grid")
	flags.StringVarP(&topologyFile, "topology-file", "f", "", "If non-empty, loads the topology from this YAML or JSON file and overwrites --topology")
	flags.UintSliceVarP(&counts, "counts", "c", []uint{0, 2, 3, 4}, "Suppression thresholds to compare")
	flags.DurationVar(&maxDelay, "max-delay", flood.DefaultMaxDelay, "Upper bound of the retransmission jitter")
	flags.IntVar(&history, "history", flood.DefaultHistory, "Broadcasts remembered by each node")
	flags.IntVarP(&broadcasts, "broadcasts", "b", 100, "Broadcasts originated per trial")
	flags.DurationVar(&interval, "interval", time.Second, "Simulated time between originations")
	flags.IntVar(&trials, "trials", 10, "Trials per threshold")
	flags.Uint64Var(&seed, "seed", 1, "Seed of the first trial")
	flags.IntVar(&inboxSize, "inbox-size", 0, "Frames a node can have queued. 0 uses the default")
	flags.Var(&logLevel, "log-level", "The log level. Should be one of {verbo, debug, trace, info, warn, error, fatal, off}")
	return cmd
}

func runFunc(cmd *cobra.Command, _ []string) error {
	topology, err := loadTopology()
	if err != nil {
		return err
	}

	log, err := logging.New("floodsim", logging.Config{
		LogLevel:     logLevel,
		DisplayLevel: logLevel,
		LogFormat:    logging.Plain,
	})
	if err != nil {
		return err
	}
	defer log.Stop()

	summaries := make([]summary, 0, len(counts))
	for _, count := range counts {
		s := summary{count: count}
		for trial := 0; trial < trials; trial++ {
			result, err := sim.Run(log, sim.Config{
				Topology:   topology,
				Count:      uint32(count),
				MaxDelay:   maxDelay,
				History:    history,
				Broadcasts: broadcasts,
				Interval:   interval,
				Seed:       seed + uint64(trial),
				InboxSize:  inboxSize,
			})
			if err != nil {
				return fmt.Errorf("count %d trial %d: %w", count, trial, err)
			}
			s.add(result)
		}
		summaries = append(summaries, s)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d nodes, %d links, %d broadcasts, %d trials\n",
		len(topology.Nodes), len(topology.Links), broadcasts, trials)
	return printSummaries(cmd.OutOrStdout(), summaries)
}

func loadTopology() (sim.Topology, error) {
	if topologyFile == "" {
		return sim.NewTopology(topologyName, topologySize)
	}
	b, err := os.ReadFile(topologyFile)
	if err != nil {
		return sim.Topology{}, fmt.Errorf("failed to read topology file: %w", err)
	}
	return sim.ParseTopology(b)
}

// summary aggregates the trials of one threshold.
type summary struct {
	count uint

	transmissions []float64
	reachability  []float64
	suppressed    []float64
	lost          []float64
}

func (s *summary) add(result *sim.Result) {
	s.transmissions = append(s.transmissions, float64(result.Transmissions)/float64(result.Broadcasts))
	s.reachability = append(s.reachability, result.Reachability)
	s.suppressed = append(s.suppressed, result.Suppressed)
	s.lost = append(s.lost, float64(result.Lost))
}

func printSummaries(w io.Writer, summaries []summary) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNT\tTX/BROADCAST\tREACHABILITY\tSUPPRESSED\tLOST")
	for _, s := range summaries {
		txMean, txStd := stat.MeanStdDev(s.transmissions, nil)
		reachMean, reachStd := stat.MeanStdDev(s.reachability, nil)
		fmt.Fprintf(tw, "%d\t%.2f ± %.2f\t%.3f ± %.3f\t%.1f\t%.1f\n",
			s.count,
			txMean, txStd,
			reachMean, reachStd,
			stat.Mean(s.suppressed, nil),
			stat.Mean(s.lost, nil),
		)
	}
	return tw.Flush()
}
