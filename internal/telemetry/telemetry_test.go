// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))

	_, span := Tracer().Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ServiceName: "test", ExporterType: "zipkin"})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: zipkin (supported: grpc, http)", err.Error())
}

func TestNewProvider_HTTPExporter(t *testing.T) {
	// The exporter connects lazily, so no collector is needed.
	p, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "mediacompose",
		ExporterType: "http",
		Endpoint:     "127.0.0.1:4318",
		SamplingRate: 1,
	})
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, sampler(0.25).Description(), "ParentBased")
}

func TestOutcomeAttributes(t *testing.T) {
	d := compose.JobDescriptor{ID: "j1", Pipeline: compose.BlackBackgroundAudioCompose}

	attrs := OutcomeAttributes(compose.Success(d, 2*time.Second))
	assert.Contains(t, attrs, attribute.String(JobIDKey, "j1"))
	assert.Contains(t, attrs, attribute.String(compose.AttrPipeline, "black_background_audio_compose"))
	assert.Contains(t, attrs, attribute.Int64(JobDurationKey, 2000))
	assert.Len(t, attrs, 4)

	attrs = OutcomeAttributes(compose.Failure(d, compose.ReasonStall, "", 0))
	assert.Contains(t, attrs, attribute.String(JobReasonKey, "STALL"))
}

func TestMeterBridge_ExposesOtelCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	b, err := NewMeterBridge(reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Shutdown(context.Background()) })

	counter, err := otel.Meter("test").Int64Counter("mediacompose.pipeline.selected_total",
		metric.WithDescription("Pipeline selections by outcome"))
	require.NoError(t, err)
	ctx := context.Background()
	counter.Add(ctx, 2, metric.WithAttributes(attribute.String("pipeline", "image_audio_compose")))
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("pipeline", "unknown")))

	expected := `
# HELP mediacompose_pipeline_selected_total Pipeline selections by outcome
# TYPE mediacompose_pipeline_selected_total counter
mediacompose_pipeline_selected_total{pipeline="image_audio_compose"} 2
mediacompose_pipeline_selected_total{pipeline="unknown"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "mediacompose_pipeline_selected_total"))
}

func TestPromName(t *testing.T) {
	assert.Equal(t, "mediacompose_job_id", promName("mediacompose.job.id"))
	assert.Equal(t, "http_server_duration", promName("http.server-duration"))
}
