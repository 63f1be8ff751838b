// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/result"
)

var _ compose.Recorder = (*Recorder)(nil)

// Recorder stores every JobOutcome as a Record.
type Recorder struct {
	store Store
	scrub result.Scrubber
	now   func() time.Time
}

// NewRecorder records into store. scrub removes server paths from stored
// diagnostics.
func NewRecorder(store Store, scrub result.Scrubber) *Recorder {
	return &Recorder{store: store, scrub: scrub, now: time.Now}
}

// RecordOutcome implements compose.Recorder.
func (r *Recorder) RecordOutcome(ctx context.Context, a compose.AssetSet, o compose.JobOutcome) error {
	return r.store.Put(ctx, NewRecord(a, o, r.now(), r.scrub))
}

// NewRecord converts an outcome. Engine diagnostics are stored without
// server paths, like the client sees them.
func NewRecord(a compose.AssetSet, o compose.JobOutcome, at time.Time, scrub result.Scrubber) Record {
	rec := Record{
		ID:           o.ID,
		Status:       string(o.Status),
		Pipeline:     o.Pipeline.String(),
		Assets:       a.String(),
		VideoIgnored: a.HasVideo() && o.Pipeline != compose.VideoPassthroughTranscode,
		Locator:      o.Locator,
		Reason:       string(o.Reason),
		Detail:       scrub.Strip(o.ErrorDetail),
		DurationMS:   o.Duration.Milliseconds(),
		CreatedAt:    at.UTC(),
	}
	for _, ref := range []*compose.FileRef{a.Image, a.Audio, a.Video} {
		if ref != nil && ref.OriginalName != "" {
			rec.Inputs = append(rec.Inputs, ref.OriginalName)
		}
	}
	return rec
}
