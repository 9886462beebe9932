package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StoredTrace is the W3C trace context of a span, flattened for a database
// row so work resumed later (e.g. the outbox publisher) joins the same trace.
type StoredTrace struct {
	Parent string // traceparent header value
	State  string // tracestate header value
}

// CaptureTrace returns the trace context of ctx. It is empty when ctx has no
// valid span.
func CaptureTrace(ctx context.Context) StoredTrace {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return StoredTrace{}
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return StoredTrace{Parent: carrier.Get("traceparent"), State: carrier.Get("tracestate")}
}

func (t StoredTrace) Empty() bool { return t.Parent == "" }

// Restore returns ctx carrying t as a remote parent span. An empty or
// malformed t leaves ctx unchanged.
func (t StoredTrace) Restore(ctx context.Context) context.Context {
	if t.Empty() {
		return ctx
	}
	carrier := propagation.MapCarrier{"traceparent": t.Parent}
	if t.State != "" {
		carrier["tracestate"] = t.State
	}
	return propagation.TraceContext{}.Extract(ctx, carrier)
}
