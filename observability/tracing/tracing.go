// Package tracing installs the OpenTelemetry tracer provider used by the
// command and query tracing behaviors.
package tracing

import (
	"context"
	"maps"
	"net"
	"slices"
	"time"

	"github.com/code19m/errx"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.23.1"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rise-and-shine/dispatch/meta"
)

const (
	reconnectionPeriod = 10 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// Config configures the OTLP trace exporter.
type Config struct {
	Disable      bool              `yaml:"disable"`
	ExporterHost string            `yaml:"exporter_host" default:"localhost"`
	ExporterPort int               `yaml:"exporter_port" default:"4317"`
	SampleRate   float64           `yaml:"sample_rate"   default:"1"         validate:"gte=0,lte=1"`
	Tags         map[string]string `yaml:"tags"`
}

// ShutdownFunc flushes pending spans and stops the tracer provider.
type ShutdownFunc func() error

// InitGlobalTracer installs a global tracer provider exporting spans over
// OTLP/gRPC and the W3C trace-context propagator. Spans carry the service
// name and version set with meta.SetServiceInfo plus cfg.Tags.
//
// A disabled config installs a no-op provider.
func InitGlobalTracer(cfg Config) (ShutdownFunc, error) {
	if cfg.Disable {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func() error { return nil }, nil
	}

	client := otlptracegrpc.NewClient(
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(net.JoinHostPort(cfg.ExporterHost, cast.ToString(cfg.ExporterPort))),
		otlptracegrpc.WithReconnectionPeriod(reconnectionPeriod),
	)

	exporter, err := otlptrace.New(context.Background(), client)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attributes(cfg.Tags)...)),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(tp)

	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := tp.ForceFlush(ctx); err != nil {
			return errx.Wrap(err)
		}
		if err := tp.Shutdown(ctx); err != nil {
			return errx.Wrap(err)
		}
		return nil
	}, nil
}

func attributes(tags map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(tags)+2)
	for _, k := range slices.Sorted(maps.Keys(tags)) {
		attrs = append(attrs, attribute.String(k, tags[k]))
	}
	return append(attrs,
		semconv.ServiceNameKey.String(meta.GetServiceName()),
		semconv.ServiceVersionKey.String(meta.GetServiceVersion()),
	)
}
