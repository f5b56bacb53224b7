package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the eventmanager tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("eventmanager")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRaiseSpan starts a span covering one raise, from resolution until
	// every handler has finished.
	StartRaiseSpan(ctx context.Context, raiseID, eventType string) (context.Context, trace.Span)

	// StartHandlerSpan starts a span for one handler invocation.
	// The handler span should be a child of the raise span.
	StartHandlerSpan(ctx context.Context, handler, kind string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartRaiseSpan starts a span for a raise.
func (m *otelSpanManager) StartRaiseSpan(ctx context.Context, raiseID, eventType string) (context.Context, trace.Span) {
	return StartRaiseSpan(ctx, raiseID, eventType)
}

// StartHandlerSpan starts a span for a handler invocation.
func (m *otelSpanManager) StartHandlerSpan(ctx context.Context, handler, kind string) (context.Context, trace.Span) {
	return StartHandlerSpan(ctx, handler, kind)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartRaiseSpan starts a span for a raise.
// Uses the global OTel tracer.
func StartRaiseSpan(ctx context.Context, raiseID, eventType string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventmanager.raise",
		trace.WithAttributes(
			attribute.String("raise.id", raiseID),
			attribute.String("event.type", eventType),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartHandlerSpan starts a span for a handler invocation.
// Uses the global OTel tracer.
func StartHandlerSpan(ctx context.Context, handler, kind string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventmanager.handler."+kind,
		trace.WithAttributes(
			attribute.String("handler.name", handler),
			attribute.String("handler.kind", kind),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
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

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
