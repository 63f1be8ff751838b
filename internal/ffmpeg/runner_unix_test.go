// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build unix

package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/encode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fake engine prints ffmpeg-like stats to stderr and, when it succeeds,
// writes a file to its last argument.
const (
	fakeSuccess = `#!/bin/sh
for a; do out="$a"; done
echo "Input #0, mp3, from 'song.mp3':" >&2
printf 'size=       0kB time=00:00:00.50 bitrate=N/A speed=N/A\r' >&2
printf 'size=      64kB time=00:00:01.00 bitrate=N/A speed=1x\r' >&2
printf 'mp4' > "$out"
`
	fakeCrash = `#!/bin/sh
echo "song.mp3: Invalid data found when processing input" >&2
exit 1
`
	fakeIgnoresTerm = `#!/bin/sh
trap '' TERM
while :; do sleep 1; done
`
)

func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755)) // #nosec G306 -- test executable
	return path
}

func startJob(t *testing.T, bin string) (encode.Handle, string) {
	t.Helper()
	job := buildJob(t, compose.BlackBackgroundAudioCompose, compose.AssetSet{
		Audio: &compose.FileRef{Path: "/up/song.mp3"},
	})
	job.OutputTemp = filepath.Join(t.TempDir(), "output.tmp.mp4")
	h, err := NewExecutor(bin).Start(context.Background(), job)
	require.NoError(t, err)
	return h, job.OutputTemp
}

func drain(h encode.Handle) []encode.ProgressEvent {
	var events []encode.ProgressEvent
	for ev := range h.Progress() {
		events = append(events, ev)
	}
	return events
}

func TestExecutor_Success(t *testing.T) {
	h, out := startJob(t, fakeBinary(t, fakeSuccess))

	events := drain(h)
	require.NoError(t, h.Wait())
	assert.NotEmpty(t, events)
	assert.FileExists(t, out)
	assert.Equal(t, []string{"Input #0, mp3, from 'song.mp3':"}, h.Diagnostics(), "stats lines are not diagnostics")
}

func TestExecutor_CrashKeepsDiagnostics(t *testing.T) {
	h, out := startJob(t, fakeBinary(t, fakeCrash))

	drain(h)
	err := h.Wait()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, h.Diagnostics(), "song.mp3: Invalid data found when processing input")
	assert.NoFileExists(t, out)
}

func TestExecutor_StopEscalatesToKill(t *testing.T) {
	h, _ := startJob(t, fakeBinary(t, fakeIgnoresTerm))

	time.Sleep(100 * time.Millisecond) // let the shell install its trap
	require.NoError(t, h.Stop(200*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- h.Wait() }()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("process group survived SIGKILL")
	}
	assert.NoError(t, h.Stop(time.Second), "stopping an exited process is a no-op")
}

func TestExecutor_MissingBinary(t *testing.T) {
	job := buildJob(t, compose.BlackBackgroundAudioCompose, compose.AssetSet{
		Audio: &compose.FileRef{Path: "/up/song.mp3"},
	})
	_, err := NewExecutor(filepath.Join(t.TempDir(), "missing")).Start(context.Background(), job)
	assert.Error(t, err)
}

// TestEncodeExecutor_FakeEngine runs the full executor against the fake
// engine: scenario outcomes are published atomically or not at all.
func TestEncodeExecutor_FakeEngine(t *testing.T) {
	tests := []struct {
		name   string
		script string
		reason compose.FailureReason
	}{
		{name: "success", script: fakeSuccess},
		{name: "crash", script: fakeCrash, reason: compose.ReasonCrash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			outDir := filepath.Join(root, "videos")
			workDir := filepath.Join(root, "work")
			require.NoError(t, os.MkdirAll(outDir, 0o750))

			d, err := compose.NewBuilder(outDir).Build(compose.BlackBackgroundAudioCompose, compose.AssetSet{
				Audio: &compose.FileRef{Path: "/up/song.mp3"},
			})
			require.NoError(t, err)

			e := encode.NewExecutor(encode.Config{WorkDir: workDir, Runner: NewExecutor(fakeBinary(t, tt.script))})
			o := e.Execute(context.Background(), d)

			assert.Equal(t, tt.reason, o.Reason)
			if tt.reason == compose.ReasonNone {
				assert.True(t, o.Succeeded())
				assert.FileExists(t, d.OutputPath)
			} else {
				assert.NoFileExists(t, d.OutputPath)
				assert.Contains(t, o.ErrorDetail, "Invalid data found")
			}
			assert.NoDirExists(t, filepath.Join(workDir, d.ID))
		})
	}
}
