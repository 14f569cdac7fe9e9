// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package accrual

// NodeStatus is a point-in-time snapshot of a monitored node: the phi value
// at the instant of the query plus its classification against the detector's
// thresholds. It is recomputed on every query and never stored.
//
// The classification flags are tiered, not mutually exclusive: a convicted
// node is also a suspect, and a zombie is a suspect that has not yet crossed
// the conviction threshold.
type NodeStatus struct {
	NodeID string  `json:"node_id"`
	Phi    float64 `json:"phi"`

	IsAlive     bool `json:"is_alive"`
	IsSuspect   bool `json:"is_suspect"`
	IsZombie    bool `json:"is_zombie"`
	IsConvicted bool `json:"is_convicted"`

	// LastHeartbeatMillis is the Unix epoch milliseconds of the most recent
	// heartbeat, meaningful only when HeartbeatCount > 0 or the node has
	// received at least one arrival.
	LastHeartbeatMillis int64 `json:"last_heartbeat_ms"`
	// HeartbeatCount is the number of inter-arrival samples currently held
	// for the node (one fewer than the heartbeats received, bounded by the
	// window size).
	HeartbeatCount int `json:"heartbeat_count"`

	MeanIntervalMillis   float64 `json:"mean_interval_ms"`
	StddevIntervalMillis float64 `json:"stddev_interval_ms"`
}

// Thresholds reports the detector's classification thresholds.
type Thresholds struct {
	Suspect float64 `json:"suspect"`
	Zombie  float64 `json:"zombie"`
	Convict float64 `json:"convict"`
}

// DetectorStats is a point-in-time summary of a Detector for observability
// collaborators. The totals are monotonically increasing over the life of the
// detector instance.
type DetectorStats struct {
	MonitoredNodes   int        `json:"monitored_nodes"`
	ConvictedNodes   int        `json:"convicted_nodes"`
	TotalHeartbeats  int64      `json:"total_heartbeats"`
	TotalConvictions int64      `json:"total_convictions"`
	TotalRecoveries  int64      `json:"total_recoveries"`
	Thresholds       Thresholds `json:"phi_thresholds"`
}
