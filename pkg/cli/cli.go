// Copyright 2026 The Reaper Authors.
//
// Use of this software is governed by the Apache License, Version 2.0,
// included in the /LICENSE file.

// Package cli implements the command-line interface of the reaper binary.
package cli

import "github.com/spf13/cobra"

var reaperCmd = &cobra.Command{
	Use:   "reaper",
	Short: "phi accrual failure detector tooling",
	Long: `
Reaper is a phi accrual failure detector: it watches heartbeat timing per
node and turns silence into a continuous suspicion level instead of a binary
timeout. This binary hosts demonstration and debugging tooling around the
detector library.
`,
	SilenceUsage: true,
}

func init() {
	reaperCmd.AddCommand(simulateCmd)
}

// Run executes the reaper command line with the given arguments.
func Run(args []string) error {
	reaperCmd.SetArgs(args)
	return reaperCmd.Execute()
}
