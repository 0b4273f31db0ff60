package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the unitcache tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("unitcache")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRegisterSpan starts a span for a backing-record allocation.
	StartRegisterSpan(ctx context.Context, signature string) (context.Context, trace.Span)

	// StartInvokeSpan starts a span for a unit invocation.
	StartInvokeSpan(ctx context.Context, handle, runID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartRegisterSpan starts a span for a backing-record allocation.
func (m *otelSpanManager) StartRegisterSpan(ctx context.Context, signature string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "unitcache.register",
		trace.WithAttributes(
			attribute.String("unit.signature", signature),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartInvokeSpan starts a span for a unit invocation.
func (m *otelSpanManager) StartInvokeSpan(ctx context.Context, handle, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "unitcache.invoke",
		trace.WithAttributes(
			attribute.String("unit.handle", handle),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
