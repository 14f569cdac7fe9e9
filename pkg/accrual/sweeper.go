// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package accrual

import (
	"context"
	"time"

	"github.com/chainbridge-mesh/reaper/pkg/util/timeutil"
)

// Sweep runs CheckAndConvict over every monitored node at the current time
// and returns the newly convicted statuses, sorted by node id. The whole
// sweep holds the detector lock, so it observes (and transitions) a single
// consistent snapshot.
func (d *Detector) Sweep() []NodeStatus {
	return d.SweepAt(d.clock.Now())
}

// SweepAt is Sweep evaluated at an explicit time.
func (d *Detector) SweepAt(now time.Time) []NodeStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	nowMillis := timeutil.ToUnixMillis(now)
	var convicted []NodeStatus
	for nodeID := range d.mu.windows {
		if status, ok := d.checkAndConvictLocked(nodeID, nowMillis); ok {
			convicted = append(convicted, status)
		}
	}
	sortStatuses(convicted)
	return convicted
}

// RunSweeper calls Sweep on the given interval until the context is
// canceled. Intended to be run as its own goroutine by callers that want
// conviction to happen on a schedule rather than on demand.
func (d *Detector) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
