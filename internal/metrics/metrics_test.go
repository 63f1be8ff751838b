// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ManuGH/mediacompose/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveEncode(t *testing.T) {
	before := testutil.ToFloat64(metrics.EncodeJobs.WithLabelValues("image_audio_compose", "success", ""))
	metrics.ObserveEncode("image_audio_compose", "success", "", 3*time.Second)
	after := testutil.ToFloat64(metrics.EncodeJobs.WithLabelValues("image_audio_compose", "success", ""))
	assert.Equal(t, before+1, after)
}

func TestObserveEncode_HistogramSample(t *testing.T) {
	metrics.ObserveEncode("video_passthrough_transcode", "encode_failure", "CRASH", 2*time.Second)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() != "mediacompose_encode_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["pipeline"] == "video_passthrough_transcode" && labels["status"] == "encode_failure" {
				hist = m.GetHistogram()
			}
		}
	}
	require.NotNil(t, hist)
	assert.GreaterOrEqual(t, hist.GetSampleCount(), uint64(1))
	assert.GreaterOrEqual(t, hist.GetSampleSum(), 2.0)
}

func TestIncProcessSignal(t *testing.T) {
	sent := metrics.ProcessSignals.WithLabelValues("SIGTERM", "sent")
	failed := metrics.ProcessSignals.WithLabelValues("SIGKILL", "error")
	s0, f0 := testutil.ToFloat64(sent), testutil.ToFloat64(failed)

	metrics.IncProcessSignal("SIGTERM", nil)
	metrics.IncProcessSignal("SIGKILL", errors.New("eperm"))

	assert.Equal(t, s0+1, testutil.ToFloat64(sent))
	assert.Equal(t, f0+1, testutil.ToFloat64(failed))
}
