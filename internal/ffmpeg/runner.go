// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/mediacompose/internal/encode"
	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/ManuGH/mediacompose/internal/metrics"
	"github.com/ManuGH/mediacompose/internal/procgroup"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Ensure Executor implements encode.Runner
var _ encode.Runner = (*Executor)(nil)

const (
	diagnosticBufferLines = 64
	progressLogInterval   = 10 * time.Second
	maxLineBytes          = 1 << 20
)

// Executor implements the encode.Runner interface.
type Executor struct {
	BinaryPath string
}

func NewExecutor(binaryPath string) *Executor {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	return &Executor{BinaryPath: binaryPath}
}

// Start launches ffmpeg in its own process group. The process is not tied
// to ctx; the caller ends it through Handle.Stop so the whole group is
// signalled, not just the leader.
func (e *Executor) Start(ctx context.Context, job encode.Job) (encode.Handle, error) {
	args := Args(job)
	logger := log.WithComponentFromContext(ctx, "ffmpeg")

	// #nosec G204 -- binary comes from config; arguments are rendered from a descriptor, never from raw input
	cmd := exec.Command(e.BinaryPath, args...)
	procgroup.Set(cmd)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to pipe stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("exec start failed: %w", err)
	}
	logger.Debug().
		Str(log.FieldEvent, "ffmpeg.started").
		Int("pid", cmd.Process.Pid).
		Strs("args", args).
		Msg("ffmpeg started")

	h := &handle{
		cmd:      cmd,
		logger:   logger,
		progress: make(chan encode.ProgressEvent, 10),
		done:     make(chan error, 1),
		ring:     NewRingBuffer(diagnosticBufferLines),
	}
	go h.monitor(stderr)
	return h, nil
}

type handle struct {
	cmd      *exec.Cmd
	logger   zerolog.Logger
	progress chan encode.ProgressEvent
	done     chan error
	ring     *RingBuffer

	mu       sync.Mutex
	killTime *time.Timer
	exited   atomic.Bool
}

func (h *handle) Wait() error {
	return <-h.done
}

// Stop sends SIGTERM to the process group and SIGKILL after grace unless
// the process exits first. The exit itself is observed through Wait.
func (h *handle) Stop(grace time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.exited.Load() {
		return nil
	}
	err := procgroup.Terminate(h.cmd)
	metrics.IncProcessSignal("SIGTERM", err)
	if err != nil {
		h.logger.Warn().Err(err).Msg("SIGTERM failed")
	}

	if h.killTime == nil && grace > 0 {
		h.killTime = time.AfterFunc(grace, func() {
			if h.exited.Load() {
				return
			}
			err := procgroup.Kill(h.cmd)
			metrics.IncProcessSignal("SIGKILL", err)
			h.logger.Warn().Err(err).Dur("grace", grace).Msg("ffmpeg ignored SIGTERM, killed")
		})
	}
	return err
}

func (h *handle) Progress() <-chan encode.ProgressEvent {
	return h.progress
}

func (h *handle) Diagnostics() []string {
	return h.ring.Lines()
}

func (h *handle) monitor(stderr io.Reader) {
	defer close(h.done)

	sometimes := rate.Sometimes{Interval: progressLogInterval}
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(scanStatsLines)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev, ok := parseProgress(line)
		if !ok {
			// Stats lines would push the actual error out of the buffer.
			h.ring.Add(line)
			continue
		}
		sometimes.Do(func() {
			h.logger.Debug().
				Str(log.FieldEvent, "ffmpeg.progress").
				Int64("frame", ev.Frame).
				Dur("out_time", ev.OutTime).
				Msg("encoding")
		})
		select {
		case h.progress <- ev:
		default:
			// Dropped heartbeat is fine, the next one follows shortly.
		}
	}
	if err := scanner.Err(); err != nil {
		// Keep draining so ffmpeg never blocks on a full pipe.
		h.ring.Add("stderr: " + err.Error())
		_, _ = io.Copy(io.Discard, stderr)
	}

	err := h.cmd.Wait()
	h.exited.Store(true)
	h.mu.Lock()
	if h.killTime != nil {
		h.killTime.Stop()
	}
	h.mu.Unlock()
	close(h.progress)
	h.done <- err
}
