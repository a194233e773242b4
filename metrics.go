package qrtr

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// observerMetrics records directory size to an otel meter. It is only
// created when the caller supplies a MeterProvider via WithMeterProvider;
// otherwise the Observer records no metrics at all.
type observerMetrics struct {
	nodes    metric.Int64UpDownCounter
	services metric.Int64UpDownCounter
}

func newObserverMetrics(provider metric.MeterProvider) (*observerMetrics, error) {
	meter := provider.Meter("github.com/qrtrlink/qrtr-go")

	nodes, err := meter.Int64UpDownCounter("qrtr.nodes.published",
		metric.WithDescription("number of currently published QRTR nodes"))
	if err != nil {
		return nil, err
	}

	services, err := meter.Int64UpDownCounter("qrtr.services.active",
		metric.WithDescription("number of currently registered QRTR service entries"))
	if err != nil {
		return nil, err
	}

	return &observerMetrics{nodes: nodes, services: services}, nil
}

func (m *observerMetrics) nodePublished(ctx context.Context)   { m.nodes.Add(ctx, 1) }
func (m *observerMetrics) nodeUnpublished(ctx context.Context) { m.nodes.Add(ctx, -1) }
func (m *observerMetrics) serviceAdded(ctx context.Context)    { m.services.Add(ctx, 1) }
func (m *observerMetrics) serviceRemoved(ctx context.Context)  { m.services.Add(ctx, -1) }
