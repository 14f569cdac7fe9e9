// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualTime(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mt := NewManualTime(t0)
	require.Equal(t, t0, mt.Now())

	mt.Advance(5 * time.Second)
	require.Equal(t, t0.Add(5*time.Second), mt.Now())

	// AdvanceTo moves forward only.
	mt.AdvanceTo(t0.Add(10 * time.Second))
	require.Equal(t, t0.Add(10*time.Second), mt.Now())
	mt.AdvanceTo(t0)
	require.Equal(t, t0.Add(10*time.Second), mt.Now())
}

func TestUnixMillisRoundTrip(t *testing.T) {
	t0 := time.Date(2026, 8, 24, 12, 30, 0, 0, time.UTC)
	require.Equal(t, t0, FromUnixMillis(ToUnixMillis(t0)))
}
