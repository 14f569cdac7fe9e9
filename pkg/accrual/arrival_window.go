// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package accrual

import (
	"math"

	"github.com/chainbridge-mesh/reaper/pkg/util/ring"
)

// arrivalWindow tracks the inter-arrival times of heartbeats for a single
// node. It keeps a bounded history of intervals and a running mean/variance
// estimate, which together feed the phi calculation.
//
// The mean and variance are maintained with a Welford-style single-pass
// update keyed on the current length of the bounded history. Once the history
// is full and starts evicting, the estimate no longer retroactively removes
// the contribution of evicted samples the way an exact sliding-window
// recomputation would; the update stays O(1) at the cost of being an
// approximation for saturated windows. An exact recomputation would cost
// O(maxSamples) per heartbeat.
//
// An arrivalWindow is owned by the Detector's registry entry for its node and
// is only accessed with the Detector's lock held.
type arrivalWindow struct {
	intervals  ring.Buffer[float64] // inter-arrival times in millis
	maxSamples int

	lastArrivalMillis int64
	hasArrival        bool

	mean     float64 // millis
	variance float64 // millis squared

	initialMeanMillis   float64
	initialStddevMillis float64
}

func newArrivalWindow(cfg Config) *arrivalWindow {
	initialMean := float64(cfg.InitialMean.Milliseconds())
	initialStddev := float64(cfg.InitialStddev.Milliseconds())
	return &arrivalWindow{
		intervals:           ring.MakeBuffer[float64](cfg.MaxSamples),
		maxSamples:          cfg.MaxSamples,
		mean:                initialMean,
		variance:            initialStddev * initialStddev,
		initialMeanMillis:   initialMean,
		initialStddevMillis: initialStddev,
	}
}

// recordHeartbeat records a heartbeat arrival at the given time. Arrivals are
// never rejected; an out-of-order timestamp simply produces a negative
// interval sample (clock skew is guarded against at phi computation time
// instead).
func (w *arrivalWindow) recordHeartbeat(arrivalMillis int64) {
	if w.hasArrival {
		interval := float64(arrivalMillis - w.lastArrivalMillis)
		if w.intervals.Len() == w.maxSamples {
			w.intervals.RemoveFirst()
		}
		w.intervals.AddLast(interval)
		w.updateStats(interval)
	}
	w.lastArrivalMillis = arrivalMillis
	w.hasArrival = true
}

// updateStats folds a new interval into the running mean and variance. n is
// the current length of the bounded history, not a lifetime sample count; see
// the type comment for the consequences.
func (w *arrivalWindow) updateStats(interval float64) {
	n := float64(w.intervals.Len())
	if n == 1 {
		w.mean = interval
		w.variance = 0
		return
	}
	delta := interval - w.mean
	w.mean += delta / n
	delta2 := interval - w.mean
	w.variance += (delta*delta2 - w.variance) / n
}

// meanMillis returns the estimated mean inter-arrival time, falling back to
// the seeded estimate when no samples exist.
func (w *arrivalWindow) meanMillis() float64 {
	if w.intervals.Len() == 0 {
		return w.initialMeanMillis
	}
	return w.mean
}

// stddevMillis returns the estimated standard deviation of the inter-arrival
// time. With fewer than two samples the variance estimate is degenerate, so
// the seeded stddev is returned instead; otherwise the result is floored at
// 1ms to keep phi finite.
func (w *arrivalWindow) stddevMillis() float64 {
	if w.intervals.Len() < 2 {
		return w.initialStddevMillis
	}
	return math.Sqrt(math.Max(w.variance, 1))
}

// sampleCount returns the number of intervals currently held.
func (w *arrivalWindow) sampleCount() int {
	return w.intervals.Len()
}

// hasEnoughSamples reports whether the window holds at least min intervals.
// Advisory only: phi is computable (and meaningful, if less reliable) before
// this is true.
func (w *arrivalWindow) hasEnoughSamples(min int) bool {
	return w.sampleCount() >= min
}
