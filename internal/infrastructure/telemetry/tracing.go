package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// InstrumentationName is the tracer and meter name used by this module.
const InstrumentationName = "github.com/retailops/backend"

// StartServiceSpan starts an internal span named "service.method" on the
// global tracer provider.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(InstrumentationName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append(attrs,
			attribute.String("service.name", service),
			attribute.String("service.method", method),
		)...),
	)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// isExpectedDBError reports errors that are normal query outcomes rather
// than failures.
func isExpectedDBError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
