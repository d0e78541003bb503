package observability

import (
	"context"
	"log"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records transition-event handling through an otel meter
// exported on the Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	eventCounter  otelmetric.Int64Counter
	eventDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	return newWithOptions(serviceName, true)
}

// NewWithRegisterer exports to reg instead of the default registry and
// leaves the global meter provider untouched.
func NewWithRegisterer(serviceName string, reg promclient.Registerer) *Observability {
	return newWithOptions(serviceName, false, prometheus.WithRegisterer(reg))
}

func newWithOptions(serviceName string, global bool, opts ...prometheus.Option) *Observability {
	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	if global {
		otel.SetMeterProvider(provider)
	}

	meter := provider.Meter(serviceName)

	eventCounter, _ := meter.Int64Counter(
		"transition_events_handled",
		otelmetric.WithDescription("Number of transition events handled by the dispatch workers"),
	)

	eventDuration, _ := meter.Float64Histogram(
		"transition_events_duration",
		otelmetric.WithDescription("Transition event handling duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		eventCounter:  eventCounter,
		eventDuration: eventDuration,
	}
}

// NewNoop returns an Observability that records nothing.
func NewNoop() *Observability {
	return &Observability{}
}

func (o *Observability) RecordEventHandled(ctx context.Context, eventType, status string) {
	if o == nil || o.eventCounter == nil {
		return
	}
	o.eventCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordEventDuration(ctx context.Context, eventType string, duration time.Duration) {
	if o == nil || o.eventDuration == nil {
		return
	}
	o.eventDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("type", eventType),
	))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
