// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package encode

import (
	"context"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
)

// Job is what a Runner executes: the descriptor plus the temporary path the
// engine must write to instead of the descriptor's final output path.
type Job struct {
	Descriptor compose.JobDescriptor
	OutputTemp string
}

// ProgressEvent is a heartbeat from a running engine.
type ProgressEvent struct {
	Frame   int64
	OutTime time.Duration
}

// Runner starts encoder processes.
type Runner interface {
	Start(ctx context.Context, job Job) (Handle, error)
}

// Handle controls one running encoder process.
type Handle interface {
	// Wait blocks until the process exits. It may be called once.
	Wait() error
	// Stop asks the process to exit and kills it after grace.
	Stop(grace time.Duration) error
	// Progress delivers heartbeats; it is closed when the process exits.
	Progress() <-chan ProgressEvent
	// Diagnostics returns the most recent engine output lines.
	Diagnostics() []string
}
