package wrapper

import (
	"context"
	"time"

	"github.com/rcrowley/go-metrics"

	"github.com/rise-and-shine/dispatch/cqrs/command"
	"github.com/rise-and-shine/dispatch/result"
)

// MetricsPrefix prefixes the metric names registered by the metrics behavior.
const MetricsPrefix = "cqrs.command."

type metricsBehavior struct {
	registry metrics.Registry
}

// NewMetricsBehavior records a timer per command identifier and counts Err
// results under "<identifier>.errors". A nil registry means
// metrics.DefaultRegistry.
func NewMetricsBehavior(registry metrics.Registry) command.Behavior {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}
	return &metricsBehavior{registry: registry}
}

func (b *metricsBehavior) Handle(ctx context.Context, cmd command.Command, next command.Next) result.Result[any] {
	name := MetricsPrefix + cmd.CommandName()

	start := time.Now()
	res := next(ctx, cmd)
	metrics.GetOrRegisterTimer(name, b.registry).UpdateSince(start)

	if res.IsErr() {
		metrics.GetOrRegisterCounter(name+".errors", b.registry).Inc(1)
	}

	return res
}
