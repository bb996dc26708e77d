// Package telemetry wraps the otel/trace API used to annotate Device.Read,
// the QueuePoller worker loop, and StateMachine state transitions. With no
// SpanProcessor/Exporter registered on the process-wide TracerProvider, the
// SDK default is a no-op tracer: every span here is free until a caller
// wires a real provider, so this is pure ambient observability, never a
// gate on any behavior described in the spec.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/arcflow/relay"

var tracer = otel.Tracer(instrumentationName)

// Start opens a span named name under ctx, returning the child context and
// an End func that records err (if any) and closes the span. Callers defer
// the returned func.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	spanCtx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return spanCtx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
