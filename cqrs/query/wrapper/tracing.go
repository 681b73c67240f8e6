package wrapper

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/dispatch/cqrs/query"
)

const tracerName = "cqrs/query"

type tracingBehavior struct {
	tracer trace.Tracer
}

// TracingOption configures the tracing behavior.
type TracingOption func(*tracingBehavior)

// WithTracerProvider uses tp instead of the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(b *tracingBehavior) {
		b.tracer = tp.Tracer(tracerName)
	}
}

// NewTracingBehavior starts an OpenTelemetry span named after the query
// identifier and records returned errors on it.
func NewTracingBehavior(opts ...TracingOption) query.Behavior {
	b := &tracingBehavior{tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *tracingBehavior) Handle(ctx context.Context, q query.Query, next query.Next) (any, error) {
	ctx, span := b.tracer.Start(ctx, q.QueryName(),
		trace.WithAttributes(attribute.String("cqrs.kind", "query")),
	)
	defer span.End()

	res, err := next(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return res, err
}
