package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records unitcache metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordRegistration records a backing-record allocation attempt with
	// its duration and error status.
	RecordRegistration(ctx context.Context, signature string, duration time.Duration, err error)

	// RecordCacheLookup records a cache lookup outcome for a signature.
	RecordCacheLookup(ctx context.Context, signature string, hit bool)

	// RecordInvocation records a unit invocation with its duration and
	// error status.
	RecordInvocation(ctx context.Context, handle string, duration time.Duration, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	registrations     metric.Int64Counter
	registrationErrs  metric.Int64Counter
	registrationTime  metric.Float64Histogram
	cacheLookups      metric.Int64Counter
	invocations       metric.Int64Counter
	invocationErrs    metric.Int64Counter
	invocationLatency metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("unitcache")

	registrations, err := meter.Int64Counter("unitcache.registrations",
		metric.WithDescription("Number of backing-record allocations"),
	)
	if err != nil {
		return nil, err
	}

	registrationErrs, err := meter.Int64Counter("unitcache.registration.errors",
		metric.WithDescription("Number of failed record allocations"),
	)
	if err != nil {
		return nil, err
	}

	registrationTime, err := meter.Float64Histogram("unitcache.registration.latency_ms",
		metric.WithDescription("Record allocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter("unitcache.cache.lookups",
		metric.WithDescription("Number of cache lookups, partitioned by hit/miss"),
	)
	if err != nil {
		return nil, err
	}

	invocations, err := meter.Int64Counter("unitcache.invocations",
		metric.WithDescription("Number of unit invocations"),
	)
	if err != nil {
		return nil, err
	}

	invocationErrs, err := meter.Int64Counter("unitcache.invocation.errors",
		metric.WithDescription("Number of failed unit invocations"),
	)
	if err != nil {
		return nil, err
	}

	invocationLatency, err := meter.Float64Histogram("unitcache.invocation.latency_ms",
		metric.WithDescription("Unit invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		registrations:     registrations,
		registrationErrs:  registrationErrs,
		registrationTime:  registrationTime,
		cacheLookups:      cacheLookups,
		invocations:       invocations,
		invocationErrs:    invocationErrs,
		invocationLatency: invocationLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordRegistration records a record allocation attempt.
func (m *otelMetrics) RecordRegistration(ctx context.Context, signature string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("signature", signature),
	}

	m.registrations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.registrationTime.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.registrationErrs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordCacheLookup records a cache lookup outcome.
func (m *otelMetrics) RecordCacheLookup(ctx context.Context, signature string, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("signature", signature),
		attribute.Bool("hit", hit),
	))
}

// RecordInvocation records a unit invocation.
func (m *otelMetrics) RecordInvocation(ctx context.Context, handle string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("handle", handle),
	}

	m.invocations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.invocationLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.invocationErrs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
