package wrapper

import (
	"context"
	"fmt"

	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/observability/logger"
	"github.com/rise-and-shine/dispatch/result"
)

type recoveryBehavior struct {
	logger logger.Logger
}

// NewRecoveryBehavior recovers panics raised by inner stages, logs them with
// a stack trace and turns them into Err results carrying the panic message.
func NewRecoveryBehavior(l logger.Logger) command.Behavior {
	return &recoveryBehavior{logger: l.Named("cqrs.command.recovery")}
}

func (b *recoveryBehavior) Handle(
	ctx context.Context,
	cmd command.Command,
	next command.Next,
) (res result.Result[any]) {
	defer func() {
		if r := recover(); r != nil {
			stack := stackTrace()

			b.logger.
				WithContext(ctx).
				With("command_name", cmd.CommandName()).
				With("stack_trace", stack).
				With("panic_values", fmt.Sprintf("%v", r)).
				Error("panic recovered in recovery behavior")

			res = result.FromError[any](panicError(command.PanicError(r).Error(), r, stack))
		}
	}()

	return next(ctx, cmd)
}
