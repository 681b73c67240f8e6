// Package hooks contains bun query hooks.
package hooks

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/dispatch/observability/logger"
)

var _ bun.QueryHook = (*DebugHook)(nil)

const defaultSlowQueryThreshold = 100 * time.Millisecond

// DebugHook logs executed queries. Failed queries are logged at error
// level, empty results and slow queries at warn level, everything else at
// debug level when verbose.
type DebugHook struct {
	logger             logger.Logger
	enabled            bool
	verbose            bool
	slowQueryThreshold time.Duration
}

// DebugHookOption configures a DebugHook.
type DebugHookOption func(*DebugHook)

// NewDebugHook creates an enabled, verbose hook logging through l.
func NewDebugHook(l logger.Logger, opts ...DebugHookOption) *DebugHook {
	h := &DebugHook{
		logger:             l.Named("pg.debug"),
		enabled:            true,
		verbose:            true,
		slowQueryThreshold: defaultSlowQueryThreshold,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithEnabled turns the hook on or off.
func WithEnabled(enabled bool) DebugHookOption {
	return func(h *DebugHook) {
		h.enabled = enabled
	}
}

// WithVerbose controls whether successful queries are logged.
func WithVerbose(verbose bool) DebugHookOption {
	return func(h *DebugHook) {
		h.verbose = verbose
	}
}

// WithSlowQueryThreshold sets the duration above which queries are logged
// as slow. Zero disables slow query detection.
func WithSlowQueryThreshold(threshold time.Duration) DebugHookOption {
	return func(h *DebugHook) {
		h.slowQueryThreshold = threshold
	}
}

func (h *DebugHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *DebugHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if !h.enabled {
		return
	}

	duration := time.Since(event.StartTime)
	noRows := errors.Is(event.Err, sql.ErrNoRows)
	failed := event.Err != nil && !noRows && !errors.Is(event.Err, sql.ErrTxDone)
	slow := h.slowQueryThreshold > 0 && duration >= h.slowQueryThreshold

	if !h.verbose && !failed && !noRows && !slow {
		return
	}

	log := h.logger.
		WithContext(ctx).
		With("query", strings.ReplaceAll(event.Query, `"`, "")).
		With("duration", duration.Round(time.Microsecond).String())

	msg := "query " + event.Operation()
	switch {
	case failed:
		log.With("error", event.Err.Error()).Error(msg)
	case noRows:
		log.With("error", event.Err.Error()).Warn(msg)
	case slow:
		log.Warn("slow " + msg)
	default:
		log.Debug(msg)
	}
}
