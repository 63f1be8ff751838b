// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"strings"

	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// MeterBridge installs an OpenTelemetry MeterProvider whose instruments are
// exposed through a Prometheus registry. It is read on every scrape; sums
// and gauges are exported, other aggregations are skipped.
type MeterBridge struct {
	reader *sdkmetric.ManualReader
	mp     *sdkmetric.MeterProvider
}

// NewMeterBridge registers the bridge on reg and sets the global
// MeterProvider.
func NewMeterBridge(reg prometheus.Registerer) (*MeterBridge, error) {
	reader := sdkmetric.NewManualReader()
	b := &MeterBridge{
		reader: reader,
		mp:     sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
	if reg != nil {
		if err := reg.Register(b); err != nil {
			return nil, err
		}
	}
	otel.SetMeterProvider(b.mp)
	return b, nil
}

// Describe sends nothing: the bridge is an unchecked collector because its
// instruments are created lazily.
func (b *MeterBridge) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (b *MeterBridge) Collect(ch chan<- prometheus.Metric) {
	var rm metricdata.ResourceMetrics
	if err := b.reader.Collect(context.Background(), &rm); err != nil {
		logger := log.WithComponent("telemetry")
		logger.Warn().Err(err).Msg("otel metric collection failed")
		return
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			name := promName(m.Name)
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				emit(ch, name, m.Description, sumType(data.IsMonotonic), data.DataPoints)
			case metricdata.Sum[float64]:
				emit(ch, name, m.Description, sumType(data.IsMonotonic), data.DataPoints)
			case metricdata.Gauge[int64]:
				emit(ch, name, m.Description, prometheus.GaugeValue, data.DataPoints)
			case metricdata.Gauge[float64]:
				emit(ch, name, m.Description, prometheus.GaugeValue, data.DataPoints)
			}
		}
	}
}

// Shutdown stops the MeterProvider.
func (b *MeterBridge) Shutdown(ctx context.Context) error {
	return b.mp.Shutdown(ctx)
}

func emit[N int64 | float64](ch chan<- prometheus.Metric, name, help string, vt prometheus.ValueType, points []metricdata.DataPoint[N]) {
	for _, dp := range points {
		var keys, values []string
		for iter := dp.Attributes.Iter(); iter.Next(); {
			kv := iter.Attribute()
			keys = append(keys, promName(string(kv.Key)))
			values = append(values, kv.Value.Emit())
		}
		if help == "" {
			help = name
		}
		m, err := prometheus.NewConstMetric(prometheus.NewDesc(name, help, keys, nil), vt, float64(dp.Value), values...)
		if err != nil {
			continue
		}
		ch <- m
	}
}

func sumType(monotonic bool) prometheus.ValueType {
	if monotonic {
		return prometheus.CounterValue
	}
	return prometheus.GaugeValue
}

func promName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}
