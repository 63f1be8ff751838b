// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package encode

import "time"

const (
	// DefaultStallTimeout fails an encode that stops reporting progress.
	DefaultStallTimeout = 60 * time.Second
	// StopGrace is the time between SIGTERM and SIGKILL.
	StopGrace = 2 * time.Second
	// ReapTimeout bounds how long we wait for a stopped process to be reaped.
	ReapTimeout = 10 * time.Second
	// DiagnosticLines is how many engine output lines are attached to a failure.
	DiagnosticLines = 20

	outputTempName = "output.tmp.mp4"
)
