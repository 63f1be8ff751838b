// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package encode executes job descriptors against the encoding engine and
// publishes results atomically.
package encode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/ManuGH/mediacompose/internal/metrics"
	"golang.org/x/sync/semaphore"
)

var _ compose.Executor = (*Executor)(nil)

// errEncodeTimeout is the cancellation cause of the per-job timeout. Other
// deadlines on the caller's context count as cancellation.
var errEncodeTimeout = errors.New("encode timeout exceeded")

// Config wires an Executor.
type Config struct {
	// WorkDir is the parent of the per-job scratch directories.
	WorkDir string
	Runner  Runner
	Clock   Clock // defaults to RealClock
	FS      FS    // defaults to RealFS

	// Timeout caps one encode (0 = no limit).
	Timeout time.Duration
	// StallTimeout fails an encode without progress for this long.
	StallTimeout time.Duration
	// MaxConcurrent bounds parallel encodes (0 = unbounded).
	MaxConcurrent int
	// StopGrace overrides the SIGTERM to SIGKILL delay.
	StopGrace time.Duration
}

// Executor runs each descriptor exactly once. ffmpeg writes into a private
// work directory and the result is only moved to the descriptor's output
// path after a clean exit, so a failed job never leaves a file there.
type Executor struct {
	workDir      string
	runner       Runner
	clock        Clock
	fs           FS
	stallTimeout time.Duration
	stopGrace    time.Duration
	slots        *semaphore.Weighted

	timeout atomic.Int64
}

// NewExecutor creates an Executor.
func NewExecutor(cfg Config) *Executor {
	e := &Executor{
		workDir:      cfg.WorkDir,
		runner:       cfg.Runner,
		clock:        cfg.Clock,
		fs:           cfg.FS,
		stallTimeout: cfg.StallTimeout,
		stopGrace:    cfg.StopGrace,
	}
	if e.clock == nil {
		e.clock = RealClock{}
	}
	if e.fs == nil {
		e.fs = RealFS{}
	}
	if e.stallTimeout <= 0 {
		e.stallTimeout = DefaultStallTimeout
	}
	if e.stopGrace <= 0 {
		e.stopGrace = StopGrace
	}
	if cfg.MaxConcurrent > 0 {
		e.slots = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	e.SetTimeout(cfg.Timeout)
	return e
}

// SetTimeout changes the per-job timeout for jobs started afterwards.
func (e *Executor) SetTimeout(d time.Duration) {
	e.timeout.Store(int64(d))
}

// Execute runs d and returns its terminal outcome.
func (e *Executor) Execute(ctx context.Context, d compose.JobDescriptor) compose.JobOutcome {
	start := e.clock.Now()
	logger := log.WithComponentFromContext(ctx, "encode").With().
		Str(log.FieldJobID, d.ID).
		Str(log.FieldPipeline, d.Pipeline.String()).
		Logger()

	finish := func(o compose.JobOutcome) compose.JobOutcome {
		o.Duration = e.clock.Now().Sub(start)
		metrics.ObserveEncode(d.Pipeline.String(), string(o.Status), string(o.Reason), o.Duration)
		ev := logger.Info()
		if !o.Succeeded() {
			ev = logger.Warn().Str(log.FieldReason, string(o.Reason))
		}
		ev.Str(log.FieldEvent, "encode.finished").
			Str("status", string(o.Status)).
			Dur("duration", o.Duration).
			Msg("encode finished")
		return o
	}

	// The timeout covers the wait for a slot as well as the encode.
	if timeout := time.Duration(e.timeout.Load()); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, timeout, errEncodeTimeout)
		defer cancel()
	}

	if e.slots != nil {
		waitStart := time.Now()
		if err := e.slots.Acquire(ctx, 1); err != nil {
			_, reason := reasonFor(ctx)
			detail := "canceled while waiting for an encode slot"
			if reason == compose.ReasonTimeout {
				detail = "timed out waiting for an encode slot"
			}
			return finish(compose.Failure(d, reason, detail, 0))
		}
		defer e.slots.Release(1)
		metrics.EncodeSlotWait.Observe(time.Since(waitStart).Seconds())
	}

	jobDir := filepath.Join(e.workDir, d.ID)
	if err := e.fs.MkdirAll(jobDir, 0o750); err != nil {
		logger.Error().Err(err).Str(log.FieldWorkDir, jobDir).Msg("failed to create work directory")
		return finish(compose.Failure(d, compose.ReasonStartFail, "could not prepare work directory", 0))
	}
	// The job directory never outlives the job: on success the output has
	// been moved out, on failure the partial output goes with it.
	defer func() {
		if err := e.fs.RemoveAll(jobDir); err != nil {
			logger.Warn().Err(err).Str(log.FieldWorkDir, jobDir).Msg("failed to remove work directory")
		}
	}()

	m := &monitor{
		job:          Job{Descriptor: d, OutputTemp: filepath.Join(jobDir, outputTempName)},
		runner:       e.runner,
		clock:        e.clock,
		fs:           e.fs,
		stallTimeout: e.stallTimeout,
		stopGrace:    e.stopGrace,
		logger:       logger,
	}
	res := m.run(ctx)

	if res.state == StateSucceeded {
		return finish(compose.Success(d, 0))
	}
	return finish(compose.Failure(d, res.reason, res.detail(), 0))
}

// result is the monitor's terminal report.
type result struct {
	state       State
	reason      compose.FailureReason
	err         error
	diagnostics []string
}

// detail renders the engine diagnostic attached to a failure.
func (r result) detail() string {
	lines := r.diagnostics
	if len(lines) > DiagnosticLines {
		lines = lines[len(lines)-DiagnosticLines:]
	}
	var b strings.Builder
	switch r.reason {
	case compose.ReasonTimeout:
		b.WriteString("encode timed out")
	case compose.ReasonStall:
		b.WriteString("encoder stopped making progress")
	case compose.ReasonCanceled:
		b.WriteString("encode canceled")
	case compose.ReasonPublish:
		b.WriteString("could not publish output")
	case compose.ReasonStartFail:
		b.WriteString("encoder failed to start")
	default:
		if r.err != nil {
			fmt.Fprintf(&b, "encoder exited: %v", r.err)
		} else {
			b.WriteString("encoder failed")
		}
	}
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			b.WriteString("\n")
			b.WriteString(l)
		}
	}
	return b.String()
}

// reasonFor maps a finished context onto a failure reason.
func reasonFor(ctx context.Context) (State, compose.FailureReason) {
	if errors.Is(context.Cause(ctx), errEncodeTimeout) {
		return StateFailed, compose.ReasonTimeout
	}
	return StateCanceled, compose.ReasonCanceled
}
