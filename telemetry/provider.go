/*
Package telemetry sets up OpenTelemetry tracing for the unfurl binaries and
instruments outbound calls to the GoTo APIs.

Spans are exported according to Options.Exporter:

    ""/"none"  tracing disabled (the global no-op provider is kept)
    "stdout"   pretty-printed spans on stdout, handy with cmd/unfurl
    "otlp"     OTLP over gRPC to Options.Endpoint
*/
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpgrpc"
	"go.opentelemetry.io/otel/exporters/stdout"
	"go.opentelemetry.io/otel/propagation"
	exporttrace "go.opentelemetry.io/otel/sdk/export/trace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv"
)

// InstrumentationName names the tracers created by this module.
const InstrumentationName = "github.com/tvanier/unfurl"

// Exporter names.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Options configures Init.
type Options struct {
	ServiceName string
	Exporter    string
	// Endpoint is the host:port of the OTLP collector.
	Endpoint string
	// SampleRate keeps 1 in SampleRate root traces. Values below 2 keep all
	// of them.
	SampleRate int
	// Writer receives stdout exporter output. Defaults to os.Stdout.
	Writer io.Writer
}

// Init installs a global tracer provider and returns the function that
// flushes and stops it.
func Init(ctx context.Context, opts Options, logger zerolog.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return noop, err
	}
	if exporter == nil {
		logger.Info().Msg("set UNFURL_TRACE_EXPORTER to capture telemetry")
		return noop, nil
	}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "unfurl"
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(newSampler(opts.SampleRate)),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.ServiceNameKey.String(serviceName))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info().Str("exporter", opts.Exporter).Str("service", serviceName).Msg("tracing enabled")
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, opts Options) (exporttrace.SpanExporter, error) {
	switch opts.Exporter {
	case "", ExporterNone:
		return nil, nil
	case ExporterStdout:
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdout.NewExporter(stdout.WithPrettyPrint(), stdout.WithWriter(w))
	case ExporterOTLP:
		driverOpts := []otlpgrpc.Option{otlpgrpc.WithInsecure()}
		if opts.Endpoint != "" {
			driverOpts = append(driverOpts, otlpgrpc.WithEndpoint(opts.Endpoint))
		}
		return otlp.NewExporter(ctx, otlpgrpc.NewDriver(driverOpts...))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", opts.Exporter)
	}
}

// newSampler samples root traces deterministically by trace id and follows
// the parent's decision otherwise.
func newSampler(sampleRate int) sdktrace.Sampler {
	if sampleRate < 2 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(1 / float64(sampleRate)))
}
