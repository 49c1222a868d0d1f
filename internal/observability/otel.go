// Package observability sets up OpenTelemetry tracing for analysis runs.
// Metrics are intentionally absent: a batch CLI has nothing to scrape.
package observability

import (
	"context"
	"fmt"

	"hirescope/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// Manager owns the tracer provider for one process lifetime.
type Manager struct {
	tracerProvider *trace.TracerProvider
}

// Setup configures the global tracer provider from configuration. When
// observability is disabled the returned manager is inert and Shutdown is a
// no-op.
func Setup(ctx context.Context, cfg *config.ObservabilityConfig) (*Manager, error) {
	if !cfg.Enabled {
		return &Manager{}, nil
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(cfg.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &Manager{tracerProvider: tp}, nil
}

func createExporter(ctx context.Context, cfg *config.ObservabilityConfig) (trace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp":
		opts := []otlptracehttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return stdouttrace.New()
	}
}

// Shutdown flushes pending spans.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.tracerProvider == nil {
		return nil
	}
	return m.tracerProvider.Shutdown(ctx)
}
