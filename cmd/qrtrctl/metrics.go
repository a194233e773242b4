package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"
)

// startMetricsLogger wires an otel SDK MeterProvider backed by a manual
// reader and periodically logs the qrtr.nodes.published /
// qrtr.services.active gauges it collects. Returns the provider to pass to
// qrtr.WithMeterProvider, and a stop func to flush the last reading.
func startMetricsLogger(ctx context.Context, log *zap.SugaredLogger) (*metric.MeterProvider, func()) {
	res := resource.NewSchemaless(attribute.String("service.name", "qrtrctl"))

	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader), metric.WithResource(res))

	ticker := time.NewTicker(5 * time.Second)
	stopped := make(chan struct{})

	logOnce := func() {
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			log.Debugw("metrics collect failed", "err", err)
			return
		}
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				log.Infow("metric", "name", m.Name, "data", m.Data)
			}
		}
	}

	go func() {
		defer close(stopped)
		for {
			select {
			case <-ticker.C:
				logOnce()
			case <-ctx.Done():
				return
			}
		}
	}()

	return provider, func() {
		ticker.Stop()
		<-stopped
		logOnce()
	}
}
