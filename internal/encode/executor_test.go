// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package encode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	workDir string
	outDir  string
	runner  *mockRunner
	desc    compose.JobDescriptor
}

func newFixture(t *testing.T, diag ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		workDir: filepath.Join(root, "work"),
		outDir:  filepath.Join(root, "out"),
		runner:  newMockRunner(diag...),
	}
	require.NoError(t, os.MkdirAll(f.outDir, 0o750))

	b := compose.NewBuilder(f.outDir, compose.WithIDGenerator(func() string { return "job-1" }))
	d, err := b.Build(compose.BlackBackgroundAudioCompose, compose.AssetSet{
		Audio: &compose.FileRef{Path: "/uploads/song.mp3", OriginalName: "song.mp3"},
	})
	require.NoError(t, err)
	f.desc = d
	return f
}

func (f *fixture) executor(mut func(*Config)) *Executor {
	cfg := Config{WorkDir: f.workDir, Runner: f.runner}
	if mut != nil {
		mut(&cfg)
	}
	return NewExecutor(cfg)
}

// run executes asynchronously and returns the outcome channel.
func run(ctx context.Context, e *Executor, d compose.JobDescriptor) <-chan compose.JobOutcome {
	ch := make(chan compose.JobOutcome, 1)
	go func() { ch <- e.Execute(ctx, d) }()
	return ch
}

func await(t *testing.T, ch <-chan compose.JobOutcome) compose.JobOutcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not return")
		return compose.JobOutcome{}
	}
}

func started(t *testing.T, r *mockRunner) *mockHandle {
	t.Helper()
	select {
	case h := <-r.started:
		return h
	case <-time.After(5 * time.Second):
		t.Fatal("runner was not started")
		return nil
	}
}

func (f *fixture) assertNoLeftovers(t *testing.T) {
	t.Helper()
	assert.NoDirExists(t, filepath.Join(f.workDir, f.desc.ID))
}

func TestExecute_SuccessPublishesAtomically(t *testing.T) {
	f := newFixture(t)
	out := run(context.Background(), f.executor(nil), f.desc)

	h := started(t, f.runner)
	assert.Equal(t, filepath.Join(f.workDir, "job-1", outputTempName), h.job.OutputTemp)
	assert.NoFileExists(t, f.desc.OutputPath, "nothing is visible while the engine runs")
	h.finish(nil)

	o := await(t, out)
	assert.True(t, o.Succeeded())
	assert.Equal(t, "job-1.mp4", o.Locator)
	assert.FileExists(t, f.desc.OutputPath)
	f.assertNoLeftovers(t)
	assert.Equal(t, int32(1), f.runner.starts.Load())
}

func TestExecute_CrashReportsDiagnostics(t *testing.T) {
	f := newFixture(t, "Input #0, mp3, from 'song.mp3':", "song.mp3: Invalid data found when processing input")
	out := run(context.Background(), f.executor(nil), f.desc)

	started(t, f.runner).finish(errors.New("exit status 1"))

	o := await(t, out)
	assert.Equal(t, compose.StatusEncodeFailure, o.Status)
	assert.Equal(t, compose.ReasonCrash, o.Reason)
	assert.Empty(t, o.Locator)
	assert.Contains(t, o.ErrorDetail, "exit status 1")
	assert.Contains(t, o.ErrorDetail, "Invalid data found")
	assert.NoFileExists(t, f.desc.OutputPath)
	f.assertNoLeftovers(t)
	assert.Equal(t, int32(1), f.runner.starts.Load(), "no retry")
}

func TestExecute_StartFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.startErr = errors.New("exec: \"ffmpeg\": executable file not found in $PATH")

	o := f.executor(nil).Execute(context.Background(), f.desc)
	assert.Equal(t, compose.ReasonStartFail, o.Reason)
	assert.NoFileExists(t, f.desc.OutputPath)
	f.assertNoLeftovers(t)
}

func TestExecute_CancelStopsEncoder(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	out := run(ctx, f.executor(nil), f.desc)

	h := started(t, f.runner)
	cancel()

	o := await(t, out)
	assert.Equal(t, compose.ReasonCanceled, o.Reason)
	assert.Equal(t, int32(1), h.stopCalls.Load())
	assert.NoFileExists(t, f.desc.OutputPath)
	f.assertNoLeftovers(t)
}

func TestExecute_TimeoutStopsEncoder(t *testing.T) {
	f := newFixture(t)
	e := f.executor(func(c *Config) { c.Timeout = 50 * time.Millisecond })
	out := run(context.Background(), e, f.desc)

	h := started(t, f.runner)
	o := await(t, out)
	assert.Equal(t, compose.ReasonTimeout, o.Reason)
	assert.Contains(t, o.ErrorDetail, "timed out")
	assert.Equal(t, int32(1), h.stopCalls.Load())
	f.assertNoLeftovers(t)
}

func TestExecute_AlreadyCanceledNeverStarts(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := f.executor(nil).Execute(ctx, f.desc)
	assert.Equal(t, compose.ReasonCanceled, o.Reason)
	assert.Equal(t, int32(0), f.runner.starts.Load())
}

func TestExecute_StallDetection(t *testing.T) {
	f := newFixture(t)
	clock := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	e := f.executor(func(c *Config) {
		c.Clock = clock
		c.StallTimeout = time.Minute
	})
	out := run(context.Background(), e, f.desc)

	h := started(t, f.runner)
	require.Eventually(t, func() bool { return clock.Waiters() == 1 }, time.Second, time.Millisecond)
	clock.Advance(time.Minute + time.Second)

	o := await(t, out)
	assert.Equal(t, compose.ReasonStall, o.Reason)
	assert.Equal(t, int32(1), h.stopCalls.Load())
	f.assertNoLeftovers(t)
}

func TestExecute_ProgressKeepsEncoderAlive(t *testing.T) {
	f := newFixture(t)
	clock := NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	e := f.executor(func(c *Config) {
		c.Clock = clock
		c.StallTimeout = time.Minute
	})
	out := run(context.Background(), e, f.desc)

	h := started(t, f.runner)
	require.Eventually(t, func() bool { return clock.Waiters() == 1 }, time.Second, time.Millisecond)

	clock.Advance(50 * time.Second)
	h.progress <- ProgressEvent{Frame: 100} // unbuffered: returns once consumed
	clock.Advance(15 * time.Second)         // original deadline passes, progress was recent

	require.Eventually(t, func() bool { return clock.Waiters() == 1 }, time.Second, time.Millisecond, "stall timer re-armed")
	h.finish(nil)

	o := await(t, out)
	assert.True(t, o.Succeeded())
	assert.Equal(t, int32(0), h.stopCalls.Load())
}

func TestExecute_PublishFailure(t *testing.T) {
	f := newFixture(t)
	e := f.executor(func(c *Config) { c.FS = failingFS{err: errors.New("read-only file system")} })
	out := run(context.Background(), e, f.desc)

	started(t, f.runner).finish(nil)

	o := await(t, out)
	assert.Equal(t, compose.ReasonPublish, o.Reason)
	assert.Empty(t, o.Locator)
	assert.NoFileExists(t, f.desc.OutputPath)
}

func TestExecute_BoundedSlots(t *testing.T) {
	f := newFixture(t)
	e := f.executor(func(c *Config) { c.MaxConcurrent = 1 })

	first := run(context.Background(), e, f.desc)
	h := started(t, f.runner)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	second := e.Execute(ctx, f.desc)
	assert.Equal(t, compose.ReasonCanceled, second.Reason)
	assert.Contains(t, second.ErrorDetail, "encode slot")

	h.finish(nil)
	assert.True(t, await(t, first).Succeeded())
}

func TestExecute_SlotWaitCountsTowardTimeout(t *testing.T) {
	f := newFixture(t)
	e := f.executor(func(c *Config) {
		c.MaxConcurrent = 1
		c.Timeout = time.Minute
	})

	first := run(context.Background(), e, f.desc)
	h := started(t, f.runner)

	e.SetTimeout(30 * time.Millisecond)
	second := e.Execute(context.Background(), f.desc)
	assert.Equal(t, compose.ReasonTimeout, second.Reason)
	assert.Contains(t, second.ErrorDetail, "timed out waiting for an encode slot")

	h.finish(nil)
	assert.True(t, await(t, first).Succeeded())
}

func TestReasonFor(t *testing.T) {
	ctx, cancel := context.WithTimeoutCause(context.Background(), time.Nanosecond, errEncodeTimeout)
	defer cancel()
	<-ctx.Done()
	state, reason := reasonFor(ctx)
	assert.Equal(t, StateFailed, state)
	assert.Equal(t, compose.ReasonTimeout, reason)

	ctx, cancel = context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	state, reason = reasonFor(ctx)
	assert.Equal(t, StateCanceled, state)
	assert.Equal(t, compose.ReasonCanceled, reason, "a caller deadline is not the encode timeout")
}

func TestResultDetail_TruncatesDiagnostics(t *testing.T) {
	diag := make([]string, DiagnosticLines+10)
	for i := range diag {
		diag[i] = "line"
	}
	diag[0] = "oldest"
	r := result{reason: compose.ReasonCrash, err: errors.New("exit status 1"), diagnostics: diag}
	assert.NotContains(t, r.detail(), "oldest")
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateRunning))
	assert.True(t, CanTransition(StateRunning, StateFinalizing))
	assert.True(t, CanTransition(StateFinalizing, StateSucceeded))
	assert.False(t, CanTransition(StateSucceeded, StateFailed))
	assert.False(t, CanTransition(StateIdle, StateSucceeded))
	assert.True(t, StateCanceled.IsTerminal())
	assert.Equal(t, "Finalizing", StateFinalizing.String())
}
