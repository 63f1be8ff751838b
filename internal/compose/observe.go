// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package compose

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys for pipeline selection.
const (
	AttrAssets       = "mediacompose.assets"
	AttrPipeline     = "mediacompose.pipeline"
	AttrOutcome      = "mediacompose.selection.outcome"
	AttrVideoIgnored = "mediacompose.selection.video_ignored"

	instrumentationName = "mediacompose.compose"
	selectionCounter    = "mediacompose_pipeline_selected_total"
)

// emitSelection records one selection on the current span and the selection
// counter. Providers are looked up at call time so tests can swap them.
func emitSelection(ctx context.Context, a AssetSet, sel Selection, err error) {
	outcome := "selected"
	pipeline := sel.Pipeline.String()
	if err != nil {
		outcome = "rejected"
		pipeline = PipelineUnknown.String()
	}

	meter := otel.GetMeterProvider().Meter(instrumentationName)
	if counter, cerr := meter.Int64Counter(selectionCounter,
		metric.WithDescription("Pipeline selections by outcome")); cerr == nil {
		counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("pipeline", pipeline),
			attribute.String("outcome", outcome),
		))
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String(AttrAssets, a.String()),
		attribute.String(AttrPipeline, pipeline),
		attribute.String(AttrOutcome, outcome),
		attribute.Bool(AttrVideoIgnored, sel.VideoIgnored),
	)
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(instrumentationName).Start(ctx, name)
}
