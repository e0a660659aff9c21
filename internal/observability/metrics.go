// Package observability holds the otel instruments used by the catalog and
// admin paths. With no SDK installed the global providers are no-ops.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const ScopeName = "github.com/01moynul/keyu-storefront"

// Metrics holds the storefront metric instruments.
type Metrics struct {
	refreshCount    metric.Int64Counter
	refreshFailures metric.Int64Counter
	mutationCount   metric.Int64Counter
}

// NewMetrics creates the instruments from mp. Instrument creation only fails
// on invalid names, in which case the unnamed fallback keeps callers working.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(ScopeName)
	m := &Metrics{}

	var err error
	m.refreshCount, err = meter.Int64Counter(
		"catalog.refresh.count",
		metric.WithDescription("Full catalog fetches applied to the cache"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		m.refreshCount, _ = meter.Int64Counter("catalog.refresh.count")
	}

	m.refreshFailures, err = meter.Int64Counter(
		"catalog.refresh.failures",
		metric.WithDescription("Full catalog fetches that failed"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		m.refreshFailures, _ = meter.Int64Counter("catalog.refresh.failures")
	}

	m.mutationCount, err = meter.Int64Counter(
		"admin.mutation.count",
		metric.WithDescription("Admin create/update/delete requests"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		m.mutationCount, _ = meter.Int64Counter("admin.mutation.count")
	}

	return m
}

// Default builds Metrics from the global MeterProvider.
func Default() *Metrics {
	return NewMetrics(otel.GetMeterProvider())
}

func (m *Metrics) RecordRefresh(ctx context.Context, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.refreshFailures.Add(ctx, 1)
		return
	}
	m.refreshCount.Add(ctx, 1)
}

func (m *Metrics) RecordMutation(ctx context.Context, op string, err error) {
	if m == nil {
		return
	}
	m.mutationCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome(err)),
	))
}

// Tracer returns the tracer used for admin mutation spans.
func Tracer() trace.Tracer {
	return otel.Tracer(ScopeName)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
