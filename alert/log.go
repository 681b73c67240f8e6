package alert

import (
	"context"

	"github.com/rise-and-shine/dispatch/observability/logger"
)

type logProvider struct {
	logger logger.Logger
}

// NewLogProvider returns a Provider that writes alerts to l at error level.
// It is used when no external alerting system is configured.
func NewLogProvider(l logger.Logger) Provider {
	return &logProvider{logger: l.Named("alert")}
}

func (p *logProvider) SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error {
	p.logger.
		WithContext(ctx).
		With("error_code", errCode).
		With("operation", operation).
		With("details", details).
		Error(msg)
	return nil
}
