// Package observability provides OpenTelemetry integration for
// distributed tracing. Spans are exported over OTLP HTTP to whatever
// collector the endpoint points at (otel-collector, Jaeger, a vendor
// agent); the collector handles authentication and forwarding.
package observability

import (
	"context"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/skatehive/docschat/internal/log"
)

// Config for OTLP trace export.
type Config struct {
	// Endpoint is the collector's OTLP HTTP endpoint, host:port.
	// Empty disables tracing.
	Endpoint string
	// ServiceName is the service name attached to exported spans.
	ServiceName string
}

// Setup registers an OTLP exporter with Genkit's TracerProvider so the
// pipeline's generate and retrieve spans reach the collector.
//
// Returns a shutdown function that flushes pending spans. Exporter
// construction failure disables tracing rather than failing startup.
func Setup(ctx context.Context, cfg Config, logger log.Logger) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if cfg.Endpoint == "" {
		return noop, nil
	}

	// Genkit's TracerProvider reads the service name from the standard
	// OTEL environment variable.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating OTLP exporter failed, tracing disabled", "error", err)
		return noop, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service", cfg.ServiceName,
	)

	return tracing.TracerProvider().Shutdown, nil
}
