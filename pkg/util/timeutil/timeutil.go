// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package timeutil

import "time"

// Now returns the current UTC time.
//
// All code in this repository reads the clock through this package (or
// through a TimeSource) so that tests can substitute a controllable time.
func Now() time.Time {
	return time.Now().UTC()
}

// Since returns the time elapsed since t.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// ToUnixMillis returns t as Unix epoch milliseconds.
func ToUnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromUnixMillis returns the UTC time corresponding to the given Unix epoch
// milliseconds.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// TimeSource is used to interact with clocks. It is an abstraction over the
// functions of the time package, allowing clock behavior to be substituted in
// tests.
type TimeSource interface {
	// Now returns the current time.
	Now() time.Time
}

// DefaultTimeSource is a TimeSource using the system clock.
type DefaultTimeSource struct{}

var _ TimeSource = DefaultTimeSource{}

// Now implements TimeSource.
func (DefaultTimeSource) Now() time.Time {
	return Now()
}
