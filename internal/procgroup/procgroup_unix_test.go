// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build unix

package procgroup

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminate_StopsGroup(t *testing.T) {
	cmd := exec.Command("sh", "-c", "sleep 30 & wait")
	Set(cmd)
	require.NoError(t, cmd.Start())

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	require.NoError(t, Terminate(cmd))
	select {
	case err := <-done:
		assert.Error(t, err, "terminated shell reports a signal exit")
	case <-time.After(5 * time.Second):
		_ = Kill(cmd)
		t.Fatal("process group did not exit after SIGTERM")
	}
}

func TestKill_AfterExitIsNoop(t *testing.T) {
	cmd := exec.Command("true")
	Set(cmd)
	require.NoError(t, cmd.Run())
	assert.NoError(t, Kill(cmd))
}

func TestSignal_NotStarted(t *testing.T) {
	assert.ErrorIs(t, Terminate(nil), ErrNotStarted)
	assert.ErrorIs(t, Kill(&exec.Cmd{}), ErrNotStarted)
}
