// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package accrual

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainbridge-mesh/reaper/pkg/util/timeutil"
)

var testBase = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestDetector(t *testing.T, cfg Config) *Detector {
	t.Helper()
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

func TestNewRejectsBadThresholds(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{"convict below zombie", Config{PhiSuspect: 1, PhiZombie: 5, PhiConvict: 4}},
		{"convict equals zombie", Config{PhiSuspect: 1, PhiZombie: 5, PhiConvict: 5}},
		{"zombie below suspect", Config{PhiSuspect: 3, PhiZombie: 2, PhiConvict: 8}},
		{"zombie equals suspect", Config{PhiSuspect: 2, PhiZombie: 2, PhiConvict: 8}},
		{"negative suspect", Config{PhiSuspect: -1, PhiZombie: 5, PhiConvict: 8}},
		{"min above max samples", Config{MaxSamples: 4, MinSamples: 10}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			require.Error(t, err)
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	d := newTestDetector(t, Config{})
	stats := d.Stats()
	require.Equal(t, DefaultPhiSuspect, stats.Thresholds.Suspect)
	require.Equal(t, DefaultPhiZombie, stats.Thresholds.Zombie)
	require.Equal(t, DefaultPhiConvict, stats.Thresholds.Convict)
}

func TestZeroBaseline(t *testing.T) {
	d := newTestDetector(t, Config{})
	d.RegisterNode("n1")

	// Registered but silent: phi 0, alive, nothing else set.
	require.Equal(t, 0.0, d.PhiAt("n1", testBase))
	status := d.StatusAt("n1", testBase)
	require.True(t, status.IsAlive)
	require.False(t, status.IsSuspect)
	require.False(t, status.IsZombie)
	require.False(t, status.IsConvicted)
	require.Equal(t, 0.0, status.Phi)

	// Unknown ids are a neutral status, not an error.
	unknown := d.Status("nope")
	require.Equal(t, "nope", unknown.NodeID)
	require.True(t, unknown.IsAlive)
	require.Equal(t, 0.0, unknown.Phi)
	require.Equal(t, 0, unknown.HeartbeatCount)
}

func TestSteadyRhythmAndSilence(t *testing.T) {
	d := newTestDetector(t, Config{})

	// Ten heartbeats spaced exactly 100ms apart starting at t=0.
	for i := 0; i < 10; i++ {
		d.HeartbeatAt("n1", testBase.Add(time.Duration(i)*100*time.Millisecond))
	}
	last := testBase.Add(900 * time.Millisecond)

	// 50ms after the last heartbeat, matching the rhythm: well below suspect.
	phiOnTime := d.PhiAt("n1", last.Add(50*time.Millisecond))
	require.Less(t, phiOnTime, DefaultPhiSuspect)

	// Two seconds of silence against a 100ms rhythm: past conviction.
	phiSilent := d.PhiAt("n1", last.Add(2*time.Second))
	require.GreaterOrEqual(t, phiSilent, DefaultPhiConvict)
	require.Greater(t, phiSilent, phiOnTime)

	status := d.StatusAt("n1", last.Add(2*time.Second))
	require.False(t, status.IsAlive)
	require.True(t, status.IsSuspect)
	require.True(t, status.IsConvicted)
}

func TestPhiMonotonicOverTime(t *testing.T) {
	d := newTestDetector(t, Config{})
	for i := 0; i < 10; i++ {
		d.HeartbeatAt("n1", testBase.Add(time.Duration(i)*100*time.Millisecond))
	}
	prev := -1.0
	for offset := time.Duration(0); offset <= 3*time.Second; offset += 25 * time.Millisecond {
		phi := d.PhiAt("n1", testBase.Add(900*time.Millisecond).Add(offset))
		require.GreaterOrEqual(t, phi, prev)
		prev = phi
	}
}

func TestClockSkewYieldsZeroPhi(t *testing.T) {
	d := newTestDetector(t, Config{})
	d.HeartbeatAt("n1", testBase.Add(time.Second))
	require.Equal(t, 0.0, d.PhiAt("n1", testBase))
	status := d.StatusAt("n1", testBase)
	require.True(t, status.IsAlive)
	require.False(t, status.IsSuspect)
}

func TestAdaptiveStatistics(t *testing.T) {
	d := newTestDetector(t, Config{})

	// Irregular but roughly 100ms rhythm.
	intervals := []int64{100, 95, 110, 105, 98, 102, 108, 97, 103, 101}
	at := testBase
	for _, iv := range intervals {
		d.HeartbeatAt("n1", at)
		at = at.Add(time.Duration(iv) * time.Millisecond)
	}

	status := d.Status("n1")
	require.InEpsilon(t, 100, status.MeanIntervalMillis, 0.05)
	require.Greater(t, status.StddevIntervalMillis, 0.0)
	require.True(t, d.HasEnoughSamples("n1"))
}

func TestNoCrossContamination(t *testing.T) {
	d := newTestDetector(t, Config{})

	nodes := []string{"alpha", "beta", "gamma", "delta"}
	for _, node := range nodes {
		d.RegisterNode(node)
		for i := 0; i < 5; i++ {
			d.HeartbeatAt(node, testBase.Add(time.Duration(i)*100*time.Millisecond))
		}
	}

	all := d.AllStatus()
	require.Len(t, all, 4)
	for _, node := range nodes {
		status := all[node]
		require.True(t, status.IsAlive)
		require.Equal(t, 4, status.HeartbeatCount)
		require.Equal(t, 100.0, status.MeanIntervalMillis)
	}
}

func TestCheckAndConvictLifecycle(t *testing.T) {
	var suspects, convictions, recoveries []string
	cfg := Config{
		InitialMean:   100 * time.Millisecond,
		InitialStddev: 100 * time.Millisecond,
		OnSuspect:     func(id string, phi float64) { suspects = append(suspects, id) },
		OnConvict:     func(id string, phi float64) { convictions = append(convictions, id) },
		OnRecover:     func(id string) { recoveries = append(recoveries, id) },
	}
	d := newTestDetector(t, cfg)
	d.HeartbeatAt("n1", testBase)

	// Immediately after the heartbeat: no suspicion, no conviction.
	_, convicted := d.CheckAndConvictAt("n1", testBase)
	require.False(t, convicted)
	require.Empty(t, suspects)

	// In the suspect band (phi between suspect and convict): OnSuspect is
	// level-triggered, firing on every check while unconvicted.
	suspectTime := testBase.Add(300 * time.Millisecond)
	_, convicted = d.CheckAndConvictAt("n1", suspectTime)
	require.False(t, convicted)
	_, convicted = d.CheckAndConvictAt("n1", suspectTime)
	require.False(t, convicted)
	require.Equal(t, []string{"n1", "n1"}, suspects)
	require.Empty(t, convictions)

	// Deep silence: conviction fires exactly once.
	deadTime := testBase.Add(2 * time.Second)
	status, convicted := d.CheckAndConvictAt("n1", deadTime)
	require.True(t, convicted)
	require.True(t, status.IsConvicted)
	require.Equal(t, []string{"n1"}, convictions)

	// Repeated checks on a convicted node are silent: no more OnSuspect, no
	// second OnConvict, and the conviction never clears on its own.
	for i := 0; i < 3; i++ {
		_, convicted = d.CheckAndConvictAt("n1", deadTime.Add(time.Duration(i)*time.Second))
		require.False(t, convicted)
	}
	require.Equal(t, []string{"n1", "n1"}, suspects)
	require.Equal(t, []string{"n1"}, convictions)
	require.Len(t, d.Convicted(), 1)

	// Recovery requires a heartbeat, and fires OnRecover exactly once.
	d.HeartbeatAt("n1", deadTime.Add(10*time.Second))
	require.Equal(t, []string{"n1"}, recoveries)
	require.Empty(t, d.Convicted())
	d.HeartbeatAt("n1", deadTime.Add(11*time.Second))
	require.Equal(t, []string{"n1"}, recoveries)
}

func TestConvictionIsSticky(t *testing.T) {
	d := newTestDetector(t, Config{})
	d.HeartbeatAt("n1", testBase)

	// Force a conviction record directly; only a heartbeat may clear it.
	d.mu.Lock()
	d.mu.convictions["n1"] = timeutil.ToUnixMillis(testBase)
	d.mu.Unlock()

	// Status and checks at times where phi is low do not clear it.
	status := d.StatusAt("n1", testBase)
	require.True(t, status.IsConvicted)
	_, convicted := d.CheckAndConvictAt("n1", testBase)
	require.False(t, convicted)
	require.Len(t, d.Convicted(), 1)

	recovered := false
	d.cfg.OnRecover = func(id string) { recovered = true }
	d.HeartbeatAt("n1", testBase.Add(time.Minute))
	require.True(t, recovered)
	require.Empty(t, d.Convicted())
}

func TestZombieBand(t *testing.T) {
	// A single arrival with seeded mean/stddev of 100ms puts phi around 6
	// at ~576ms of silence: inside the grey-failure band.
	d := newTestDetector(t, Config{
		InitialMean:   100 * time.Millisecond,
		InitialStddev: 100 * time.Millisecond,
	})
	d.HeartbeatAt("n1", testBase)

	at := testBase.Add(576 * time.Millisecond)
	phi := d.PhiAt("n1", at)
	require.Greater(t, phi, DefaultPhiZombie)
	require.Less(t, phi, DefaultPhiConvict)

	status := d.StatusAt("n1", at)
	require.True(t, status.IsZombie)
	require.True(t, status.IsSuspect)
	require.True(t, status.IsAlive)
	require.False(t, status.IsConvicted)
}

func TestAggregateViews(t *testing.T) {
	clock := timeutil.NewManualTime(testBase)
	d := newTestDetector(t, Config{
		InitialMean:   100 * time.Millisecond,
		InitialStddev: 100 * time.Millisecond,
		TimeSource:    clock,
	})

	// healthy keeps heartbeating; zombie and dead go quiet at t=0.
	for _, node := range []string{"healthy", "zombie", "dead"} {
		d.HeartbeatAt(node, testBase)
	}
	clock.Advance(576 * time.Millisecond) // zombie band for a silent node
	d.HeartbeatAt("healthy", clock.Now())

	zombies := d.Zombies()
	require.Len(t, zombies, 2)
	require.Equal(t, "dead", zombies[0].NodeID)
	require.Equal(t, "zombie", zombies[1].NodeID)

	suspects := d.Suspects()
	require.Len(t, suspects, 2)

	// Push "dead" past conviction while "zombie" recovers.
	d.HeartbeatAt("zombie", clock.Now())
	clock.Advance(10 * time.Second)
	d.HeartbeatAt("healthy", clock.Now())
	d.HeartbeatAt("zombie", clock.Now())
	_, convicted := d.CheckAndConvict("dead")
	require.True(t, convicted)

	convictedList := d.Convicted()
	require.Len(t, convictedList, 1)
	require.Equal(t, "dead", convictedList[0].NodeID)
}

func TestUnregisterNode(t *testing.T) {
	d := newTestDetector(t, Config{})
	d.HeartbeatAt("n1", testBase)
	_, convicted := d.CheckAndConvictAt("n1", testBase.Add(time.Hour))
	require.True(t, convicted)

	d.UnregisterNode("n1")
	require.Empty(t, d.Convicted())
	require.Equal(t, 0, d.Stats().MonitoredNodes)
	require.Equal(t, 0.0, d.PhiAt("n1", testBase.Add(2*time.Hour)))

	// Unknown ids are a no-op.
	d.UnregisterNode("never-registered")
}

func TestStatsAndMetrics(t *testing.T) {
	d := newTestDetector(t, Config{})

	d.RegisterNode("a")
	d.RegisterNode("a") // idempotent
	for i := 0; i < 5; i++ {
		d.HeartbeatAt("a", testBase.Add(time.Duration(i)*100*time.Millisecond))
		d.HeartbeatAt("b", testBase.Add(time.Duration(i)*100*time.Millisecond))
	}
	_, convicted := d.CheckAndConvictAt("b", testBase.Add(time.Hour))
	require.True(t, convicted)

	stats := d.Stats()
	require.Equal(t, 2, stats.MonitoredNodes)
	require.Equal(t, 1, stats.ConvictedNodes)
	require.Equal(t, int64(10), stats.TotalHeartbeats)
	require.Equal(t, int64(1), stats.TotalConvictions)
	require.Equal(t, int64(0), stats.TotalRecoveries)

	m := d.Metrics()
	require.Equal(t, int64(2), m.NodesMonitored.Value())
	require.Equal(t, int64(1), m.NodesConvicted.Value())

	// Recovery moves the counters, and the totals never decrease.
	d.HeartbeatAt("b", testBase.Add(2*time.Hour))
	stats = d.Stats()
	require.Equal(t, 0, stats.ConvictedNodes)
	require.Equal(t, int64(1), stats.TotalRecoveries)
	require.Equal(t, int64(1), stats.TotalConvictions)
	require.Equal(t, int64(0), m.NodesConvicted.Value())
}

func TestConcurrentAccess(t *testing.T) {
	d := newTestDetector(t, Config{})

	const workers = 8
	const beatsPerWorker = 200
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			node := fmt.Sprintf("node-%d", i%4)
			for j := 0; j < beatsPerWorker; j++ {
				d.Heartbeat(node)
				if j%10 == 0 {
					d.Status(node)
					d.CheckAndConvict(node)
					d.Stats()
					d.AllStatus()
				}
			}
		}(i)
	}
	wg.Wait()

	stats := d.Stats()
	require.Equal(t, 4, stats.MonitoredNodes)
	require.Equal(t, int64(workers*beatsPerWorker), stats.TotalHeartbeats)
}
