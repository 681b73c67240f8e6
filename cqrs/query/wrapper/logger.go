package wrapper

import (
	"context"
	"time"

	"github.com/rise-and-shine/dispatch/cqrs/query"
	"github.com/rise-and-shine/dispatch/observability/logger"
)

type loggerBehavior struct {
	logger logger.Logger
}

// NewLoggerBehavior logs every query execution with its duration and masked
// input. Errors are logged and returned unchanged.
func NewLoggerBehavior(l logger.Logger) query.Behavior {
	return &loggerBehavior{logger: l.Named("cqrs.query.logger")}
}

func (b *loggerBehavior) Handle(ctx context.Context, q query.Query, next query.Next) (any, error) {
	log := b.logger.WithContext(ctx).With("query_name", q.QueryName())
	log.Debug("query started")

	start := time.Now()
	res, err := next(ctx, q)

	log = log.
		With("execution_time", time.Since(start).String()).
		With("input", loggable(q))

	if err != nil {
		log.With("error", logger.ErrorFields(err)).Error("query failed")
		return res, err
	}

	log.Debug("query succeeded")
	return res, nil
}
