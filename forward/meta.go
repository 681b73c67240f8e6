package forward

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/dispatch/meta"
	"github.com/rise-and-shine/dispatch/observability/tracing"
)

// TraceIDHeader carries the request trace id in responses.
const TraceIDHeader = "X-Trace-ID"

// MetaMiddleware stores the trace id, client IP and user agent of the
// request in its user context, where the command meta behavior and the
// logger pick them up.
func MetaMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		traceID := tracing.GetStartingTraceID(ctx)

		c.SetUserContext(meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{ //nolint:exhaustive // request scoped keys only
			meta.TraceID:   traceID,
			meta.IPAddress: c.IP(),
			meta.UserAgent: c.Get(fiber.HeaderUserAgent),
		}))
		c.Set(TraceIDHeader, traceID)

		return c.Next()
	}
}
