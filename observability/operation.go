package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation is a traced unit of work, such as one spawn or one worker
// request.
type Operation struct {
	span  trace.Span
	start time.Time
}

// StartOperation starts a span named name carrying attrs.
func StartOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &Operation{span: span, start: time.Now()}
}

// SetAttributes adds attributes to the operation span.
func (o *Operation) SetAttributes(attrs ...attribute.KeyValue) {
	o.span.SetAttributes(attrs...)
}

// End finishes the span, marking it failed when err is non-nil, and
// returns the elapsed time.
func (o *Operation) End(err error) time.Duration {
	duration := time.Since(o.start)
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
		o.span.SetAttributes(
			attribute.String(AttrStatus, "error"),
			attribute.String(AttrErrorMessage, err.Error()),
		)
	} else {
		o.span.SetAttributes(attribute.String(AttrStatus, "ok"))
	}
	o.span.End()
	return duration
}

// Status maps err to the status label used on metrics.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
