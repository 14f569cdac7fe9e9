// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

/*
Package accrual implements a phi accrual failure detector, after
Hayashibara et al., "The Phi Accrual Failure Detector" (IEEE SRDS 2004).

Instead of a binary alive/dead verdict derived from a fixed timeout, the
detector maintains per-node statistics over heartbeat inter-arrival times and
converts "time since the last heartbeat" into a continuous suspicion level,
phi. Phi is a logarithmic confidence scale: phi = 1 means there is a 10%
chance the silence is a false alarm, phi = 2 means 1%, phi = 8 means 0.01%.
Callers pick their own sensitivity by choosing thresholds rather than
hard-coding a timeout.

A Detector classifies each monitored node into tiers:

  - suspect: phi has crossed the suspect threshold; worth watching.
  - zombie: phi is in the grey-failure band, slow enough to worry about but
    not yet confidently dead.
  - convicted: phi crossed the conviction threshold during a check; the
    detector now believes the node is dead.

Conviction is sticky. Once convicted, a node stays convicted until a new
heartbeat arrives, at which point the conviction is cleared and the recovery
callback fires. Phi receding on its own never un-convicts a node; this
asymmetry prevents flapping.

The detector performs no I/O and owns no transport: collaborators push
heartbeats in via Heartbeat and drive evaluation via CheckAndConvict, Sweep,
or RunSweeper. Lifecycle transitions are reported through the OnSuspect,
OnConvict and OnRecover callbacks supplied at construction.
*/
package accrual
