package wrapper

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"

	"github.com/rise-and-shine/dispatch/cqrs"
	"github.com/rise-and-shine/dispatch/cqrs/query"
	"github.com/rise-and-shine/dispatch/observability/logger"
)

const maxJitter = 10 * time.Millisecond

type retryBehavior struct {
	attempts uint
	delay    time.Duration
	logger   logger.Logger
}

// RetryOption configures the retry behavior.
type RetryOption func(*retryBehavior)

// WithRetryLogger logs every failed attempt through l.
func WithRetryLogger(l logger.Logger) RetryOption {
	return func(b *retryBehavior) {
		b.logger = l.Named("cqrs.query.retry")
	}
}

// NewRetryBehavior calls inner stages up to attempts times, waiting delay
// between attempts. Missing handlers, validation errors and context
// cancellation are not retried. The last error is returned unchanged.
func NewRetryBehavior(attempts uint, delay time.Duration, opts ...RetryOption) query.Behavior {
	b := &retryBehavior{
		attempts: max(attempts, 1),
		delay:    delay,
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *retryBehavior) Handle(ctx context.Context, q query.Query, next query.Next) (any, error) {
	log := b.logger.WithContext(ctx).With("query_name", q.QueryName())

	return retry.DoWithData(
		func() (any, error) {
			return next(ctx, q)
		},
		retry.Attempts(b.attempts),
		retry.Delay(b.delay),
		retry.MaxJitter(maxJitter),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			log.With("attempt", n+1).With("error", err.Error()).Warn("query failed, retrying")
		}),
		retry.Context(ctx),
	)
}

func retryable(err error) bool {
	var notFound *cqrs.HandlerNotFoundError
	switch {
	case errors.As(err, &notFound):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}

	var e errx.ErrorX
	if errors.As(err, &e) && e.Type() == errx.T_Validation {
		return false
	}
	return true
}
