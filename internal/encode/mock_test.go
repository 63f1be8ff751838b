// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package encode

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// mockHandle is a scripted encoder process. Tests end it with finish or Stop.
type mockHandle struct {
	job      Job
	progress chan ProgressEvent
	exit     chan error
	diag     []string

	stopCalls atomic.Int32
	exitOnce  sync.Once
}

func newMockHandle(job Job, diag ...string) *mockHandle {
	return &mockHandle{
		job:      job,
		progress: make(chan ProgressEvent),
		exit:     make(chan error, 1),
		diag:     diag,
	}
}

// finish ends the process. A nil error writes the temporary output first,
// like a successful ffmpeg run.
func (h *mockHandle) finish(err error) {
	h.exitOnce.Do(func() {
		if err == nil {
			_ = os.WriteFile(h.job.OutputTemp, []byte("mp4"), 0o600)
		}
		h.exit <- err
	})
}

func (h *mockHandle) Wait() error { return <-h.exit }

func (h *mockHandle) Stop(time.Duration) error {
	h.stopCalls.Add(1)
	h.exitOnce.Do(func() { h.exit <- errors.New("signal: terminated") })
	return nil
}

func (h *mockHandle) Progress() <-chan ProgressEvent { return h.progress }

func (h *mockHandle) Diagnostics() []string { return append([]string(nil), h.diag...) }

// mockRunner hands every started handle to the test through started.
type mockRunner struct {
	startErr error
	diag     []string
	started  chan *mockHandle
	starts   atomic.Int32
}

func newMockRunner(diag ...string) *mockRunner {
	return &mockRunner{started: make(chan *mockHandle, 4), diag: diag}
}

func (r *mockRunner) Start(_ context.Context, job Job) (Handle, error) {
	r.starts.Add(1)
	if r.startErr != nil {
		return nil, r.startErr
	}
	h := newMockHandle(job, r.diag...)
	r.started <- h
	return h, nil
}

// failingFS wraps RealFS and fails Publish.
type failingFS struct {
	RealFS
	err error
}

func (f failingFS) Publish(string, string) error { return f.err }
