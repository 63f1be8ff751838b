// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package encode

import (
	"context"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/ManuGH/mediacompose/internal/metrics"
	"github.com/rs/zerolog"
)

// monitor supervises a single encoder process until it reaches a terminal
// state. It is used once.
type monitor struct {
	job          Job
	runner       Runner
	clock        Clock
	fs           FS
	stallTimeout time.Duration
	stopGrace    time.Duration
	logger       zerolog.Logger

	state State
}

func (m *monitor) transition(to State) {
	if !CanTransition(m.state, to) {
		m.logger.Error().
			Str(log.FieldOldState, m.state.String()).
			Str(log.FieldNewState, to.String()).
			Msg("illegal encode state transition")
		return
	}
	m.logger.Debug().
		Str(log.FieldOldState, m.state.String()).
		Str(log.FieldNewState, to.String()).
		Msg("encode state changed")
	m.state = to
}

func (m *monitor) fail(to State, reason compose.FailureReason, err error, diag []string) result {
	m.transition(to)
	return result{state: m.state, reason: reason, err: err, diagnostics: diag}
}

func (m *monitor) run(ctx context.Context) result {
	if ctx.Err() != nil {
		state, reason := reasonFor(ctx)
		return m.fail(state, reason, ctx.Err(), nil)
	}

	handle, err := m.runner.Start(ctx, m.job)
	if err != nil {
		m.logger.Error().Err(err).Str(log.FieldEvent, "encode.start_failed").Msg("encoder failed to start")
		return m.fail(StateFailed, compose.ReasonStartFail, err, nil)
	}
	m.transition(StateRunning)
	metrics.EncodesInFlight.Inc()
	defer metrics.EncodesInFlight.Dec()

	// Wait is called exactly once; its result is shared by every branch.
	waitCh := make(chan error, 1)
	go func() { waitCh <- handle.Wait() }()

	progress := handle.Progress()
	lastSeen := m.clock.Now()
	stallCh := m.clock.After(m.stallTimeout)

	for {
		select {
		case <-ctx.Done():
			state, reason := reasonFor(ctx)
			m.stop(handle, waitCh)
			return m.fail(state, reason, ctx.Err(), handle.Diagnostics())

		case _, ok := <-progress:
			if !ok {
				// Closed on exit; the wait branch reports the result.
				progress = nil
				continue
			}
			lastSeen = m.clock.Now()

		case <-stallCh:
			if m.clock.Now().Sub(lastSeen) >= m.stallTimeout {
				m.logger.Warn().Str(log.FieldEvent, "encode.stalled").Dur("timeout", m.stallTimeout).Msg("no encoder progress, stopping")
				m.stop(handle, waitCh)
				return m.fail(StateFailed, compose.ReasonStall, nil, handle.Diagnostics())
			}
			stallCh = m.clock.After(m.stallTimeout - m.clock.Now().Sub(lastSeen))

		case err := <-waitCh:
			if err != nil {
				// A process killed by our own context reports a signal exit.
				if ctx.Err() != nil {
					state, reason := reasonFor(ctx)
					return m.fail(state, reason, ctx.Err(), handle.Diagnostics())
				}
				return m.fail(StateFailed, compose.ReasonCrash, err, handle.Diagnostics())
			}
			m.transition(StateFinalizing)
			if err := m.fs.Publish(m.job.OutputTemp, m.job.Descriptor.OutputPath); err != nil {
				m.logger.Error().Err(err).Str(log.FieldFinalPath, m.job.Descriptor.OutputPath).Msg("publish failed")
				return m.fail(StateFailed, compose.ReasonPublish, err, nil)
			}
			m.transition(StateSucceeded)
			return result{state: m.state}
		}
	}
}

// stop terminates the process and waits until it is reaped, so the work
// directory can be removed safely afterwards.
func (m *monitor) stop(h Handle, waitCh <-chan error) {
	if err := h.Stop(m.stopGrace); err != nil {
		m.logger.Warn().Err(err).Msg("failed to stop encoder")
	}
	select {
	case <-waitCh:
	case <-time.After(ReapTimeout):
		m.logger.Error().Str(log.FieldEvent, "encode.reap_timeout").Msg("encoder did not exit after stop")
	}
}
