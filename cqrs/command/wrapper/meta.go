package wrapper

import (
	"context"

	"github.com/rise-and-shine/dispatch/cqrs"
	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/meta"
	"github.com/rise-and-shine/dispatch/observability/tracing"
	"github.com/rise-and-shine/dispatch/result"
)

type metaBehavior struct {
	serviceName    string
	serviceVersion string
}

// NewMetaBehavior injects the trace id, service info and the command
// identifier into the context of inner stages. A trace id already present in
// the context is kept.
func NewMetaBehavior(serviceName, serviceVersion string) command.Behavior {
	return &metaBehavior{serviceName: serviceName, serviceVersion: serviceVersion}
}

func (b *metaBehavior) Handle(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
	traceID := meta.Get(ctx, meta.TraceID)
	if traceID == "" {
		traceID = tracing.GetStartingTraceID(ctx)
	}

	ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{ //nolint:exhaustive // request keys are set by transports
		meta.TraceID:        traceID,
		meta.ServiceName:    b.serviceName,
		meta.ServiceVersion: b.serviceVersion,
		meta.Operation:      cmd.CommandName(),
		meta.OperationKind:  cqrs.KindCommand.String(),
	})

	return next(ctx, cmd)
}
