// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

package accrual

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/chainbridge-mesh/reaper/pkg/util/timeutil"
)

// Default configuration values. The thresholds follow the conventional phi
// scale: suspicion starts at 10% false-positive probability, conviction at
// 0.01%.
const (
	DefaultPhiSuspect = 1.0
	DefaultPhiZombie  = 5.0
	DefaultPhiConvict = 8.0

	// DefaultMaxSamples bounds the per-node interval history.
	DefaultMaxSamples = 1000
	// DefaultMinSamples is the advisory minimum number of intervals before
	// HasEnoughSamples reports true.
	DefaultMinSamples = 5

	// DefaultInitialMean and DefaultInitialStddev seed a node's interval
	// distribution before any real samples exist, so phi is computable from
	// the very first heartbeat.
	DefaultInitialMean   = time.Second
	DefaultInitialStddev = 200 * time.Millisecond
)

// Config configures a Detector. The zero value of every field means "use the
// default"; a zero-value Config is valid.
type Config struct {
	// PhiSuspect, PhiZombie and PhiConvict are the classification thresholds.
	// They must satisfy PhiSuspect < PhiZombie < PhiConvict.
	PhiSuspect float64
	PhiZombie  float64
	PhiConvict float64

	// MaxSamples bounds each node's inter-arrival history; once full, the
	// oldest interval is evicted per new heartbeat.
	MaxSamples int
	// MinSamples is the advisory sample count below which per-node statistics
	// are considered unreliable. It does not gate phi computation.
	MinSamples int

	// InitialMean and InitialStddev seed the interval distribution of a node
	// that has not yet produced enough samples.
	InitialMean   time.Duration
	InitialStddev time.Duration

	// OnSuspect is invoked by CheckAndConvict whenever an unconvicted node's
	// phi is at or above PhiSuspect. It is level-triggered: it fires on every
	// qualifying check, not once per suspicion episode.
	OnSuspect func(nodeID string, phi float64)
	// OnConvict is invoked exactly once per conviction, when a check first
	// pushes an unconvicted node's phi to PhiConvict or above.
	OnConvict func(nodeID string, phi float64)
	// OnRecover is invoked exactly once when a heartbeat arrives for a
	// convicted node, clearing the conviction.
	OnRecover func(nodeID string)

	// TimeSource supplies the current time to the methods that do not take an
	// explicit timestamp. Defaults to the system clock.
	TimeSource timeutil.TimeSource
}

// withDefaults returns a copy of the config with empty fields replaced by
// default values.
func (c Config) withDefaults() Config {
	if c.PhiSuspect == 0 {
		c.PhiSuspect = DefaultPhiSuspect
	}
	if c.PhiZombie == 0 {
		c.PhiZombie = DefaultPhiZombie
	}
	if c.PhiConvict == 0 {
		c.PhiConvict = DefaultPhiConvict
	}
	if c.MaxSamples == 0 {
		c.MaxSamples = DefaultMaxSamples
	}
	if c.MinSamples == 0 {
		c.MinSamples = DefaultMinSamples
	}
	if c.InitialMean == 0 {
		c.InitialMean = DefaultInitialMean
	}
	if c.InitialStddev == 0 {
		c.InitialStddev = DefaultInitialStddev
	}
	if c.TimeSource == nil {
		c.TimeSource = timeutil.DefaultTimeSource{}
	}
	return c
}

// validate checks the config after defaults have been applied. Misconfiguration
// is the only hard failure this package has; it is rejected eagerly at
// construction rather than surfacing later as nonsense classifications.
func (c Config) validate() error {
	if !(c.PhiSuspect < c.PhiZombie && c.PhiZombie < c.PhiConvict) {
		return errors.Newf(
			"phi thresholds must be ordered suspect < zombie < convict; got %.2f, %.2f, %.2f",
			c.PhiSuspect, c.PhiZombie, c.PhiConvict)
	}
	if c.PhiSuspect <= 0 {
		return errors.Newf("suspect threshold must be positive; got %.2f", c.PhiSuspect)
	}
	if c.MaxSamples < 1 {
		return errors.Newf("max samples must be at least 1; got %d", c.MaxSamples)
	}
	if c.MinSamples < 1 || c.MinSamples > c.MaxSamples {
		return errors.Newf("min samples must be in [1, %d]; got %d", c.MaxSamples, c.MinSamples)
	}
	if c.InitialMean <= 0 || c.InitialStddev <= 0 {
		return errors.Newf("initial mean and stddev must be positive; got %s, %s",
			c.InitialMean, c.InitialStddev)
	}
	return nil
}
