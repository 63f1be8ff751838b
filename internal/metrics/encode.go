// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EncodeJobs counts terminal encode outcomes.
	EncodeJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediacompose_encode_jobs_total",
		Help: "Terminal encode outcomes by pipeline, status and failure reason",
	}, []string{"pipeline", "status", "reason"})

	// EncodeDuration tracks wall-clock encode duration.
	EncodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mediacompose_encode_duration_seconds",
		Help:    "Wall-clock duration of encode jobs",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 14), // 0.5s to ~68m
	}, []string{"pipeline", "status"})

	// EncodesInFlight is the number of running encoder processes.
	EncodesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediacompose_encodes_in_flight",
		Help: "Encoder processes currently running",
	})

	// EncodeSlotWait tracks time spent waiting for a bounded encode slot.
	EncodeSlotWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediacompose_encode_slot_wait_seconds",
		Help:    "Time spent waiting for an encode slot",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	})

	// ProcessSignals counts signals sent to encoder process groups.
	ProcessSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediacompose_encode_process_signals_total",
		Help: "Signals sent to encoder process groups",
	}, []string{"signal", "result"})
)

// ObserveEncode records one terminal outcome.
func ObserveEncode(pipeline, status, reason string, took time.Duration) {
	EncodeJobs.WithLabelValues(pipeline, status, reason).Inc()
	EncodeDuration.WithLabelValues(pipeline, status).Observe(took.Seconds())
}

// IncProcessSignal records a signal delivery attempt.
func IncProcessSignal(signal string, err error) {
	result := "sent"
	if err != nil {
		result = "error"
	}
	ProcessSignals.WithLabelValues(signal, result).Inc()
}
