package wrapper

import (
	"context"
	"strings"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/dispatch/alert"
	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/meta"
	"github.com/rise-and-shine/dispatch/observability/logger"
	"github.com/rise-and-shine/dispatch/result"
)

const alertTimeout = 3 * time.Second

// CodeCommandFailed is the alert code of failures that carry no errx cause.
const CodeCommandFailed = "COMMAND_FAILED"

type alertBehavior struct {
	logger   logger.Logger
	provider alert.Provider
}

// NewAlertBehavior sends an alert through provider for every Err result.
// Alerts are sent asynchronously and the result is returned unchanged.
func NewAlertBehavior(l logger.Logger, provider alert.Provider) command.Behavior {
	return &alertBehavior{
		logger:   l.Named("cqrs.command.alerting"),
		provider: provider,
	}
}

func (b *alertBehavior) Handle(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
	res := next(ctx, cmd)
	if res.IsOk() {
		return res
	}

	code := CodeCommandFailed
	if cause := res.Cause(); cause != nil {
		if c := errx.AsErrorX(cause).Code(); c != "" {
			code = c
		}
	}

	msg := strings.Join(res.GetErrors(), "; ")
	operation := "command: " + cmd.CommandName()

	details := make(map[string]string)
	for k, v := range meta.ExtractMetaFromContext(ctx) {
		details[string(k)] = v
	}

	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)

	go func() {
		defer cancel()

		if err := b.provider.SendError(alertCtx, code, msg, operation, details); err != nil {
			b.logger.WithContext(ctx).With("alert_send_error", err).Warn("failed to send error alert")
		}
	}()

	return res
}
