package tracing

import (
	"context"

	"github.com/serum-errors/go-serum"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

// TracerFromCtx returns the tracer set for the current context.
// If no tracer is currently set in ctx, a new no-op tracer will be returned.
func TracerFromCtx(ctx context.Context) trace.Tracer {
	tracer, ok := ctx.Value(ctxKey{}).(trace.Tracer)
	if !ok {
		return trace.NewNoopTracerProvider().Tracer("")
	}
	return tracer
}

// SetTracer returns a new context with the given tracer associated with it.
// Setting the tracer to nil will create a noop tracer and insert it into the context.
func SetTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("")
	}
	if existing, ok := ctx.Value(ctxKey{}).(trace.Tracer); ok {
		if existing == tracer {
			return ctx
		}
	}
	return context.WithValue(ctx, ctxKey{}, tracer)
}

// Start is a shortcut for retrieving the context tracer and calling Start.
// If the current context does not contain a tracer, spans go to a no-op tracer.
func Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return TracerFromCtx(ctx).Start(ctx, spanName, opts...)
}

const SpanAttrErrorCode = "hivectl.error.code"
const SpanAttrResourceKind = "hivectl.resource.kind"
const SpanAttrResourceID = "hivectl.resource.id"
const SpanAttrHTTPStatus = "hivectl.http.status"

// SetSpanError records a failed operation on the current span, tagging it
// with the serum error code when one is present.
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if code := serum.Code(err); code != "" {
		span.SetAttributes(attribute.String(SpanAttrErrorCode, code))
	}
	span.SetStatus(codes.Error, err.Error())
}
