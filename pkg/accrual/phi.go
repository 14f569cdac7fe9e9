// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package accrual

import "math"

// pLaterFloor bounds the tail probability away from zero so that
// -log10(pLater) stays finite. It corresponds to a phi ceiling of 10.
const pLaterFloor = 1e-10

// phiFromInterval converts the time since the last heartbeat into a phi
// value, given the node's estimated interval distribution.
//
// pLater estimates the probability that a heartbeat arrives later than
// sinceMillis from the previous one, under a normal distribution with the
// given mean and standard deviation:
//
//	pLater = 0.5 * erfc(z / sqrt(2)),  z = (since - mean) / stddev
//	phi    = -log10(pLater)
//
// The standardized deviate is clamped at ±5: beyond that erfc underflows well
// past any classification threshold, so the extremes map directly to pLater
// of 1.0 and pLaterFloor.
func phiFromInterval(sinceMillis, meanMillis, stddevMillis float64) float64 {
	stddev := math.Max(stddevMillis, 1)
	z := (sinceMillis - meanMillis) / stddev

	var pLater float64
	switch {
	case z < -5:
		pLater = 1.0
	case z > 5:
		pLater = pLaterFloor
	default:
		pLater = 0.5 * math.Erfc(z/math.Sqrt2)
	}
	if pLater < pLaterFloor {
		pLater = pLaterFloor
	}
	return -math.Log10(pLater)
}

// phiAt computes the node's suspicion level at nowMillis. It returns 0 for a
// window with no recorded arrival and for evaluation times that precede the
// last arrival (clock skew must never manufacture suspicion).
func phiAt(w *arrivalWindow, nowMillis int64) float64 {
	if !w.hasArrival {
		return 0
	}
	sinceMillis := nowMillis - w.lastArrivalMillis
	if sinceMillis < 0 {
		return 0
	}
	return phiFromInterval(float64(sinceMillis), w.meanMillis(), w.stddevMillis())
}
