// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chainbridge-mesh/reaper/pkg/accrual"
)

var simulateCtx struct {
	nodes             int
	heartbeatInterval time.Duration
	jitter            float64
	sweepInterval     time.Duration
	duration          time.Duration
	killAfter         time.Duration
	deadFor           time.Duration
	seed              int64
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "run a synthetic cluster against the failure detector",
	Long: `
Runs an in-process simulation: a set of nodes heartbeat on a jittered
rhythm while a sweeper periodically evaluates suspicion. One victim node
goes silent partway through and revives later, demonstrating the
suspect -> convict -> recover lifecycle. No network I/O is involved.
`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.IntVar(&simulateCtx.nodes, "nodes", 4, "number of simulated nodes")
	f.DurationVar(&simulateCtx.heartbeatInterval, "heartbeat-interval", 100*time.Millisecond,
		"base interval between heartbeats")
	f.Float64Var(&simulateCtx.jitter, "jitter", 0.2,
		"relative jitter applied to each heartbeat interval")
	f.DurationVar(&simulateCtx.sweepInterval, "sweep-interval", 250*time.Millisecond,
		"how often the sweeper evaluates all nodes")
	f.DurationVar(&simulateCtx.duration, "duration", 10*time.Second, "total simulation time")
	f.DurationVar(&simulateCtx.killAfter, "kill-after", 3*time.Second,
		"when the victim node goes silent")
	f.DurationVar(&simulateCtx.deadFor, "dead-for", 4*time.Second,
		"how long the victim stays silent before reviving")
	f.Int64Var(&simulateCtx.seed, "seed", 1, "pseudo-random seed for heartbeat jitter")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	detector, err := accrual.New(accrual.Config{
		OnSuspect: func(nodeID string, phi float64) {
			logger.Warn().Str("node", nodeID).Float64("phi", phi).Msg("node suspected")
		},
		OnConvict: func(nodeID string, phi float64) {
			logger.Error().Str("node", nodeID).Float64("phi", phi).Msg("node convicted")
		},
		OnRecover: func(nodeID string) {
			logger.Info().Str("node", nodeID).Msg("node recovered")
		},
	})
	if err != nil {
		return err
	}

	nodeIDs := make([]string, simulateCtx.nodes)
	for i := range nodeIDs {
		nodeIDs[i] = "node-" + uuid.New().String()[:8]
		detector.RegisterNode(nodeIDs[i])
	}
	victim := nodeIDs[0]
	logger.Info().Str("victim", victim).Int("nodes", len(nodeIDs)).
		Dur("duration", simulateCtx.duration).Msg("starting simulation")

	ctx, cancel := context.WithTimeout(cmd.Context(), simulateCtx.duration)
	defer cancel()

	var wg sync.WaitGroup
	start := time.Now()
	for i, nodeID := range nodeIDs {
		wg.Add(1)
		go func(i int, nodeID string) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(simulateCtx.seed + int64(i)))
			for {
				interval := jittered(simulateCtx.heartbeatInterval, simulateCtx.jitter, rng)
				select {
				case <-time.After(interval):
				case <-ctx.Done():
					return
				}
				if nodeID == victim {
					elapsed := time.Since(start)
					if elapsed > simulateCtx.killAfter &&
						elapsed < simulateCtx.killAfter+simulateCtx.deadFor {
						continue // silent, but the goroutine keeps ticking
					}
				}
				detector.Heartbeat(nodeID)
			}
		}(i, nodeID)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		detector.RunSweeper(ctx, simulateCtx.sweepInterval)
	}()

	<-ctx.Done()
	wg.Wait()

	printStatusTable(detector)
	printStatsSummary(detector)
	return nil
}

// jittered returns the base interval scaled by a random factor in
// [1-jitter, 1+jitter].
func jittered(base time.Duration, jitter float64, rng *rand.Rand) time.Duration {
	factor := 1 + jitter*(2*rng.Float64()-1)
	return time.Duration(float64(base) * factor)
}

func printStatusTable(detector *accrual.Detector) {
	all := detector.AllStatus()
	nodeIDs := make([]string, 0, len(all))
	for nodeID := range all {
		nodeIDs = append(nodeIDs, nodeID)
	}
	sort.Strings(nodeIDs)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"node", "state", "phi", "heartbeats", "mean (ms)", "stddev (ms)"})
	for _, nodeID := range nodeIDs {
		status := all[nodeID]
		table.Append([]string{
			status.NodeID,
			statusLabel(status),
			fmt.Sprintf("%.2f", status.Phi),
			strconv.Itoa(status.HeartbeatCount),
			fmt.Sprintf("%.1f", status.MeanIntervalMillis),
			fmt.Sprintf("%.1f", status.StddevIntervalMillis),
		})
	}
	table.Render()
}

func printStatsSummary(detector *accrual.Detector) {
	stats := detector.Stats()
	fmt.Printf("heartbeats: %s  convictions: %s  recoveries: %s  monitored: %d  convicted: %d\n",
		humanize.Comma(stats.TotalHeartbeats),
		humanize.Comma(stats.TotalConvictions),
		humanize.Comma(stats.TotalRecoveries),
		stats.MonitoredNodes,
		stats.ConvictedNodes,
	)
}

// statusLabel picks the most severe applicable classification.
func statusLabel(status accrual.NodeStatus) string {
	switch {
	case status.IsConvicted:
		return "convicted"
	case status.IsZombie:
		return "zombie"
	case status.IsSuspect:
		return "suspect"
	default:
		return "alive"
	}
}
