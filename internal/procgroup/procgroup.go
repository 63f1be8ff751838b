// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup starts child processes in their own process group so the
// whole tree (ffmpeg plus any filter helpers) can be signalled at once.
package procgroup

import (
	"errors"
	"os"
	"os/exec"
)

// ErrNotStarted is returned when signalling a command that has no process.
var ErrNotStarted = errors.New("process not started")

// Set configures cmd to start in a new process group.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Terminate asks the process group of cmd to exit.
func Terminate(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return ErrNotStarted
	}
	return signalGroup(cmd, terminateSignal)
}

// Kill forcibly ends the process group of cmd. A process that already
// exited is not an error.
func Kill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return ErrNotStarted
	}
	return signalGroup(cmd, os.Kill)
}
