// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package accrual

import (
	"sort"
	"time"

	"github.com/chainbridge-mesh/reaper/pkg/util/syncutil"
	"github.com/chainbridge-mesh/reaper/pkg/util/timeutil"
)

// Detector is a phi accrual failure detector. It owns an arrival window per
// monitored node, applies the suspect/zombie/convict thresholds, keeps the
// set of currently convicted nodes, and fires the lifecycle callbacks.
//
// A Detector is safe for concurrent use by multiple goroutines: heartbeat
// producers and status consumers serialize on a single coarse lock, so
// aggregate queries always observe a consistent registry snapshot.
//
// Callbacks are invoked synchronously with the detector lock held. They must
// return promptly, must not panic, and must not call back into the Detector.
type Detector struct {
	cfg     Config
	clock   timeutil.TimeSource
	metrics Metrics

	mu struct {
		syncutil.Mutex
		// windows maps node id to its arrival window. An entry exists for
		// every monitored node, created by RegisterNode or implicitly by the
		// node's first heartbeat.
		windows map[string]*arrivalWindow
		// convictions maps node id to conviction time (unix millis) for
		// nodes currently believed dead. Absence means "not convicted".
		// Entries are removed only by a new heartbeat or UnregisterNode.
		convictions map[string]int64
	}
}

// New creates a Detector from the given config. Empty config fields take
// their defaults; an invalid threshold ordering is rejected here and the
// detector is never usable.
func New(cfg Config) (*Detector, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	d := &Detector{
		cfg:     cfg,
		clock:   cfg.TimeSource,
		metrics: makeMetrics(),
	}
	d.mu.windows = map[string]*arrivalWindow{}
	d.mu.convictions = map[string]int64{}
	return d, nil
}

// Metrics returns the detector's metrics, for registration with a
// metric.Registry.
func (d *Detector) Metrics() Metrics {
	return d.metrics
}

// RegisterNode starts monitoring the given node. Idempotent.
func (d *Detector) RegisterNode(nodeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.getOrCreateWindowLocked(nodeID)
}

// UnregisterNode stops monitoring the given node, dropping its statistics and
// any conviction record. Unknown ids are a no-op.
func (d *Detector) UnregisterNode(nodeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.mu.windows[nodeID]; ok {
		delete(d.mu.windows, nodeID)
		d.metrics.NodesMonitored.Update(int64(len(d.mu.windows)))
	}
	if _, ok := d.mu.convictions[nodeID]; ok {
		delete(d.mu.convictions, nodeID)
		d.metrics.NodesConvicted.Update(int64(len(d.mu.convictions)))
	}
}

// Heartbeat records a heartbeat for the given node at the current time,
// registering the node first if it is unknown. If the node was convicted, the
// conviction is cleared and OnRecover fires; a new heartbeat is the only way
// a conviction is ever cleared.
func (d *Detector) Heartbeat(nodeID string) {
	d.HeartbeatAt(nodeID, d.clock.Now())
}

// HeartbeatAt is Heartbeat with an explicit arrival time.
func (d *Detector) HeartbeatAt(nodeID string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w := d.getOrCreateWindowLocked(nodeID)
	w.recordHeartbeat(timeutil.ToUnixMillis(at))
	d.metrics.Heartbeats.Inc(1)

	if _, convicted := d.mu.convictions[nodeID]; convicted {
		delete(d.mu.convictions, nodeID)
		d.metrics.NodesConvicted.Update(int64(len(d.mu.convictions)))
		d.metrics.Recoveries.Inc(1)
		if d.cfg.OnRecover != nil {
			d.cfg.OnRecover(nodeID)
		}
	}
}

// Phi returns the node's suspicion level at the current time. Unknown nodes,
// nodes with no recorded heartbeat, and evaluation times preceding the last
// heartbeat all yield 0.
func (d *Detector) Phi(nodeID string) float64 {
	return d.PhiAt(nodeID, d.clock.Now())
}

// PhiAt is Phi evaluated at an explicit time.
func (d *Detector) PhiAt(nodeID string, now time.Time) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.mu.windows[nodeID]
	if !ok {
		return 0
	}
	return phiAt(w, timeutil.ToUnixMillis(now))
}

// HasEnoughSamples reports whether the node's interval history has reached
// the configured minimum sample count. Advisory: consumers may want to treat
// classifications of a node below this bar as low-confidence.
func (d *Detector) HasEnoughSamples(nodeID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.mu.windows[nodeID]
	return ok && w.hasEnoughSamples(d.cfg.MinSamples)
}

// Status returns the node's full status at the current time. Unknown ids
// yield a neutral status (phi 0, alive, seeded statistics) rather than an
// error.
func (d *Detector) Status(nodeID string) NodeStatus {
	return d.StatusAt(nodeID, d.clock.Now())
}

// StatusAt is Status evaluated at an explicit time.
func (d *Detector) StatusAt(nodeID string, now time.Time) NodeStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statusLocked(nodeID, timeutil.ToUnixMillis(now))
}

// CheckAndConvict evaluates the node's phi at the current time, firing
// OnSuspect (level-triggered) and, on the first crossing of the conviction
// threshold, recording the conviction and firing OnConvict. It returns the
// node's status and true only when a new conviction occurred; callers wanting
// the current state regardless of transitions should use Status.
func (d *Detector) CheckAndConvict(nodeID string) (NodeStatus, bool) {
	return d.CheckAndConvictAt(nodeID, d.clock.Now())
}

// CheckAndConvictAt is CheckAndConvict evaluated at an explicit time.
func (d *Detector) CheckAndConvictAt(nodeID string, now time.Time) (NodeStatus, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.checkAndConvictLocked(nodeID, timeutil.ToUnixMillis(now))
}

// Suspects returns the status of all nodes currently suspected but not
// convicted, sorted by node id.
func (d *Detector) Suspects() []NodeStatus {
	return d.filterStatus(func(s NodeStatus) bool {
		return s.IsSuspect && !s.IsConvicted
	})
}

// Zombies returns the status of all nodes currently in the grey-failure band,
// sorted by node id.
func (d *Detector) Zombies() []NodeStatus {
	return d.filterStatus(func(s NodeStatus) bool {
		return s.IsZombie
	})
}

// Convicted returns the status of all nodes currently believed dead, sorted
// by node id.
func (d *Detector) Convicted() []NodeStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	nowMillis := timeutil.ToUnixMillis(d.clock.Now())
	statuses := make([]NodeStatus, 0, len(d.mu.convictions))
	for nodeID := range d.mu.convictions {
		statuses = append(statuses, d.statusLocked(nodeID, nowMillis))
	}
	sortStatuses(statuses)
	return statuses
}

// AllStatus returns the status of every monitored node at the instant of the
// call. A snapshot, not a live view.
func (d *Detector) AllStatus() map[string]NodeStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	nowMillis := timeutil.ToUnixMillis(d.clock.Now())
	all := make(map[string]NodeStatus, len(d.mu.windows))
	for nodeID := range d.mu.windows {
		all[nodeID] = d.statusLocked(nodeID, nowMillis)
	}
	return all
}

// Stats returns a point-in-time summary of the detector.
func (d *Detector) Stats() DetectorStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DetectorStats{
		MonitoredNodes:   len(d.mu.windows),
		ConvictedNodes:   len(d.mu.convictions),
		TotalHeartbeats:  d.metrics.Heartbeats.Count(),
		TotalConvictions: d.metrics.Convictions.Count(),
		TotalRecoveries:  d.metrics.Recoveries.Count(),
		Thresholds: Thresholds{
			Suspect: d.cfg.PhiSuspect,
			Zombie:  d.cfg.PhiZombie,
			Convict: d.cfg.PhiConvict,
		},
	}
}

func (d *Detector) getOrCreateWindowLocked(nodeID string) *arrivalWindow {
	d.mu.AssertHeld()
	w, ok := d.mu.windows[nodeID]
	if !ok {
		w = newArrivalWindow(d.cfg)
		d.mu.windows[nodeID] = w
		d.metrics.NodesMonitored.Update(int64(len(d.mu.windows)))
	}
	return w
}

func (d *Detector) statusLocked(nodeID string, nowMillis int64) NodeStatus {
	d.mu.AssertHeld()
	w, ok := d.mu.windows[nodeID]
	if !ok {
		return NodeStatus{
			NodeID:               nodeID,
			IsAlive:              true,
			MeanIntervalMillis:   float64(d.cfg.InitialMean.Milliseconds()),
			StddevIntervalMillis: float64(d.cfg.InitialStddev.Milliseconds()),
		}
	}
	phi := phiAt(w, nowMillis)
	_, convicted := d.mu.convictions[nodeID]
	return NodeStatus{
		NodeID:               nodeID,
		Phi:                  phi,
		IsAlive:              phi < d.cfg.PhiConvict,
		IsSuspect:            phi >= d.cfg.PhiSuspect,
		IsZombie:             d.cfg.PhiZombie <= phi && phi < d.cfg.PhiConvict,
		IsConvicted:          convicted || phi >= d.cfg.PhiConvict,
		LastHeartbeatMillis:  w.lastArrivalMillis,
		HeartbeatCount:       w.sampleCount(),
		MeanIntervalMillis:   w.meanMillis(),
		StddevIntervalMillis: w.stddevMillis(),
	}
}

func (d *Detector) checkAndConvictLocked(nodeID string, nowMillis int64) (NodeStatus, bool) {
	d.mu.AssertHeld()
	w, ok := d.mu.windows[nodeID]
	if !ok {
		return NodeStatus{}, false
	}
	phi := phiAt(w, nowMillis)
	_, wasConvicted := d.mu.convictions[nodeID]

	if phi >= d.cfg.PhiSuspect && !wasConvicted && d.cfg.OnSuspect != nil {
		d.cfg.OnSuspect(nodeID, phi)
	}
	if phi >= d.cfg.PhiConvict && !wasConvicted {
		d.mu.convictions[nodeID] = nowMillis
		d.metrics.NodesConvicted.Update(int64(len(d.mu.convictions)))
		d.metrics.Convictions.Inc(1)
		if d.cfg.OnConvict != nil {
			d.cfg.OnConvict(nodeID, phi)
		}
		return d.statusLocked(nodeID, nowMillis), true
	}
	return NodeStatus{}, false
}

func (d *Detector) filterStatus(pred func(NodeStatus) bool) []NodeStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	nowMillis := timeutil.ToUnixMillis(d.clock.Now())
	var statuses []NodeStatus
	for nodeID := range d.mu.windows {
		if s := d.statusLocked(nodeID, nowMillis); pred(s) {
			statuses = append(statuses, s)
		}
	}
	sortStatuses(statuses)
	return statuses
}

func sortStatuses(statuses []NodeStatus) {
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].NodeID < statuses[j].NodeID
	})
}
