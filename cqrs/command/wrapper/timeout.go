package wrapper

import (
	"context"
	"time"

	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/result"
)

type timeoutBehavior struct {
	timeout time.Duration
}

// NewTimeoutBehavior runs inner stages with a context that expires after
// timeout. A non-positive timeout disables the deadline.
func NewTimeoutBehavior(timeout time.Duration) command.Behavior {
	return &timeoutBehavior{timeout: timeout}
}

func (b *timeoutBehavior) Handle(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
	if b.timeout <= 0 {
		return next(ctx, cmd)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return next(ctx, cmd)
}
