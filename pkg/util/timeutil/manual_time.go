// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package timeutil

import (
	"time"

	"github.com/chainbridge-mesh/reaper/pkg/util/syncutil"
)

// ManualTime is a TimeSource whose clock only moves when Advance or AdvanceTo
// is called. Safe for concurrent use.
type ManualTime struct {
	mu struct {
		syncutil.RWMutex
		now time.Time
	}
}

var _ TimeSource = (*ManualTime)(nil)

// NewManualTime constructs a new ManualTime whose clock reads t.
func NewManualTime(t time.Time) *ManualTime {
	mt := &ManualTime{}
	mt.mu.now = t
	return mt
}

// Now implements TimeSource.
func (m *ManualTime) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mu.now
}

// Advance moves the clock forward by the given duration.
func (m *ManualTime) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mu.now = m.mu.now.Add(d)
}

// AdvanceTo moves the clock to t, provided t is after the current reading.
// Earlier values are ignored; the manual clock never runs backwards.
func (m *ManualTime) AdvanceTo(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.After(m.mu.now) {
		m.mu.now = t
	}
}
