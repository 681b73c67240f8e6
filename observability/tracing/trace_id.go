package tracing

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ManualTraceIDPrefix marks trace ids generated without an active span.
const ManualTraceIDPrefix = "man-"

// GetStartingTraceID returns the trace id of the span in ctx, or a fresh
// "man-<uuid>" id when tracing is not active, so logs can still be correlated.
func GetStartingTraceID(ctx context.Context) string {
	traceID := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if traceID.IsValid() {
		return traceID.String()
	}
	return ManualTraceIDPrefix + uuid.NewString()
}
