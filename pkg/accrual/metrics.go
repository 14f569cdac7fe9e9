// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package accrual

import "github.com/chainbridge-mesh/reaper/pkg/util/metric"

var (
	metaHeartbeats = metric.Metadata{
		Name:        "accrual.heartbeats",
		Help:        "Heartbeats recorded across all monitored nodes",
		Measurement: "Heartbeats",
		Unit:        metric.Unit_COUNT,
	}
	metaConvictions = metric.Metadata{
		Name:        "accrual.convictions",
		Help:        "Nodes convicted as failed",
		Measurement: "Convictions",
		Unit:        metric.Unit_COUNT,
	}
	metaRecoveries = metric.Metadata{
		Name:        "accrual.recoveries",
		Help:        "Convicted nodes that recovered via a new heartbeat",
		Measurement: "Recoveries",
		Unit:        metric.Unit_COUNT,
	}
	metaNodesMonitored = metric.Metadata{
		Name:        "accrual.nodes.monitored",
		Help:        "Nodes currently monitored by the detector",
		Measurement: "Nodes",
		Unit:        metric.Unit_COUNT,
	}
	metaNodesConvicted = metric.Metadata{
		Name:        "accrual.nodes.convicted",
		Help:        "Nodes currently believed dead",
		Measurement: "Nodes",
		Unit:        metric.Unit_COUNT,
	}
)

// Metrics holds the detector's metrics. The counters double as the source of
// truth for the totals reported by Stats.
type Metrics struct {
	Heartbeats     *metric.Counter
	Convictions    *metric.Counter
	Recoveries     *metric.Counter
	NodesMonitored *metric.Gauge
	NodesConvicted *metric.Gauge
}

func makeMetrics() Metrics {
	return Metrics{
		Heartbeats:     metric.NewCounter(metaHeartbeats),
		Convictions:    metric.NewCounter(metaConvictions),
		Recoveries:     metric.NewCounter(metaRecoveries),
		NodesMonitored: metric.NewGauge(metaNodesMonitored),
		NodesConvicted: metric.NewGauge(metaNodesConvicted),
	}
}

// RegisterAll registers every detector metric with the given registry.
func (m Metrics) RegisterAll(r *metric.Registry) {
	r.MustAddMetric(m.Heartbeats)
	r.MustAddMetric(m.Convictions)
	r.MustAddMetric(m.Recoveries)
	r.MustAddMetric(m.NodesMonitored)
	r.MustAddMetric(m.NodesConvicted)
}
