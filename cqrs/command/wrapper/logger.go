package wrapper

import (
	"context"
	"time"

	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/observability/logger"
	"github.com/rise-and-shine/dispatch/result"
)

type loggerBehavior struct {
	logger logger.Logger
}

// NewLoggerBehavior logs every command execution with its duration, masked
// input and outcome. Ok results are logged at info level, Err results at
// error level.
func NewLoggerBehavior(l logger.Logger) command.Behavior {
	return &loggerBehavior{logger: l.Named("cqrs.command.logger")}
}

func (b *loggerBehavior) Handle(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
	log := b.logger.WithContext(ctx).With("command_name", cmd.CommandName())
	log.Debug("command started")

	start := time.Now()
	res := next(ctx, cmd)

	log = log.
		With("execution_time", time.Since(start).String()).
		With("input", loggable(cmd))

	if res.IsOk() {
		log.Info("command succeeded")
		return res
	}

	log = log.With("errors", res.GetErrors())
	if cause := res.Cause(); cause != nil {
		log = log.With("error", logger.ErrorFields(cause))
	}
	log.Error("command failed")

	return res
}
