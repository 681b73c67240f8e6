package wrapper

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/result"
)

const tracerName = "cqrs/command"

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

// NewTracingBehavior starts an OpenTelemetry span named after the command
// identifier. An Err result marks the span as failed.
func NewTracingBehavior(opts ...TracingOption) command.Behavior {
	b := &tracingBehavior{tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *tracingBehavior) Handle(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
	ctx, span := b.tracer.Start(ctx, cmd.CommandName(),
		trace.WithAttributes(attribute.String("cqrs.kind", "command")),
	)
	defer span.End()

	res := next(ctx, cmd)
	if res.IsErr() {
		msg := strings.Join(res.GetErrors(), "; ")
		if cause := res.Cause(); cause != nil {
			span.RecordError(cause)
		}
		span.SetStatus(codes.Error, msg)
	}

	return res
}
