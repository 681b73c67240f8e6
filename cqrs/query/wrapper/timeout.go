package wrapper

import (
	"context"
	"time"

	"github.com/rise-and-shine/dispatch/cqrs/query"
)

type timeoutBehavior struct {
	timeout time.Duration
}

// NewTimeoutBehavior runs inner stages with a context that expires after
// timeout. A non-positive timeout disables the deadline.
func NewTimeoutBehavior(timeout time.Duration) query.Behavior {
	return &timeoutBehavior{timeout: timeout}
}

func (b *timeoutBehavior) Handle(ctx context.Context, q query.Query, next query.Next) (any, error) {
	if b.timeout <= 0 {
		return next(ctx, q)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return next(ctx, q)
}
