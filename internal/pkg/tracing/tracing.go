// Package tracing carries the per-request trace id.
//
// Trace ids live in the request's OpenTelemetry span context, so ids created
// by an application's own tracer and ids propagated through a W3C
// traceparent header are read the same way.
package tracing

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/apikit/apikit/internal/pkg/id"
)

// EmptyTraceID is reported when a request carries no trace context
const EmptyTraceID = "00000000000000000000000000000000"

// LocalsKey is the Fiber locals key holding the request's trace id
const LocalsKey = "traceID"

var propagator = propagation.TraceContext{}

// TraceID returns the current request's trace id as 32 lowercase hex
// characters. It never panics and returns EmptyTraceID when the request has
// no trace context.
func TraceID(c *fiber.Ctx) (traceID string) {
	defer func() {
		if r := recover(); r != nil {
			traceID = EmptyTraceID
		}
	}()

	if c == nil {
		return EmptyTraceID
	}
	if traceID = FromContext(c.UserContext()); traceID != EmptyTraceID {
		return traceID
	}
	if local, ok := c.Locals(LocalsKey).(string); ok && local != "" {
		return local
	}
	return EmptyTraceID
}

// FromContext returns the trace id stored in ctx, or EmptyTraceID
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return EmptyTraceID
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return EmptyTraceID
	}
	return sc.TraceID().String()
}

// Extract returns ctx carrying the remote span context found in a W3C
// traceparent/tracestate header pair, if any
func Extract(ctx context.Context, headers map[string]string) context.Context {
	return propagator.Extract(ctx, propagation.MapCarrier(headers))
}

// Inject writes the span context of ctx into headers as traceparent
func Inject(ctx context.Context, headers map[string]string) {
	propagator.Inject(ctx, propagation.MapCarrier(headers))
}

// Start returns ctx carrying a fresh span context. The trace id of an
// existing (possibly remote) parent is kept; otherwise newTraceID supplies
// one. A nil newTraceID uses id.NewTraceID.
func Start(ctx context.Context, newTraceID func() string) context.Context {
	if newTraceID == nil {
		newTraceID = id.NewTraceID
	}

	parent := trace.SpanContextFromContext(ctx)
	traceID := parent.TraceID()
	if !parent.HasTraceID() {
		generated, err := trace.TraceIDFromHex(newTraceID())
		if err != nil {
			generated, _ = trace.TraceIDFromHex(id.NewTraceID())
		}
		traceID = generated
	}
	spanID, _ := trace.SpanIDFromHex(id.NewSpanID())

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: parent.TraceFlags() | trace.FlagsSampled,
		TraceState: parent.TraceState(),
	})
	return trace.ContextWithSpanContext(ctx, sc)
}
