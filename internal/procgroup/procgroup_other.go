// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !unix

package procgroup

import (
	"errors"
	"os"
	"os/exec"
)

// Without process groups, termination falls back to the root process.
var terminateSignal = os.Interrupt

func set(*exec.Cmd) {}

func signalGroup(cmd *exec.Cmd, sig os.Signal) error {
	var err error
	if sig == os.Kill {
		err = cmd.Process.Kill()
	} else {
		err = cmd.Process.Signal(sig)
	}
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
