// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mediacompose_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	// HTTPRequestsInFlight is the number of requests being served.
	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediacompose_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	// UploadBytes counts received upload bytes per form field.
	UploadBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediacompose_upload_bytes_total",
		Help: "Bytes received per multipart field",
	}, []string{"field"})

	// UploadRejected counts rejected uploads by reason.
	UploadRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediacompose_upload_rejected_total",
		Help: "Rejected uploads by reason",
	}, []string{"reason"})

	// CatalogErrors counts failed catalog operations by backend and op.
	CatalogErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediacompose_catalog_errors_total",
		Help: "Failed catalog operations",
	}, []string{"backend", "op"})
)
