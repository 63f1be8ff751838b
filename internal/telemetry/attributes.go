// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"github.com/ManuGH/mediacompose/internal/compose"
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the service.
const (
	JobIDKey       = "mediacompose.job.id"
	JobStatusKey   = "mediacompose.job.status"
	JobReasonKey   = "mediacompose.job.reason"
	JobDurationKey = "mediacompose.job.duration_ms"

	ErrorTypeKey = "error.type"
)

// OutcomeAttributes describes a finished job.
func OutcomeAttributes(o compose.JobOutcome) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(JobIDKey, o.ID),
		attribute.String(compose.AttrPipeline, o.Pipeline.String()),
		attribute.String(JobStatusKey, string(o.Status)),
		attribute.Int64(JobDurationKey, o.Duration.Milliseconds()),
	}
	if o.Reason != compose.ReasonNone {
		attrs = append(attrs, attribute.String(JobReasonKey, string(o.Reason)))
	}
	return attrs
}

// ErrorAttributes classifies a request error.
func ErrorAttributes(category string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String(ErrorTypeKey, category)}
}
