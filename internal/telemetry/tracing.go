// Package telemetry configures OpenTelemetry tracing for pipeline stages.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName names the tracer used by the pipeline.
const InstrumentationName = "github.com/rickgao/hedge-lob"

// Config selects the span exporter.
type Config struct {
	Exporter       string // none or stdout
	ServiceName    string
	ServiceVersion string
	Writer         io.Writer // stdout exporter destination; defaults to os.Stderr
}

// Tracing holds the tracer and the provider behind it.
type Tracing struct {
	Tracer trace.Tracer
	tp     *sdktrace.TracerProvider
	logger *slog.Logger
}

// Setup builds a tracer for cfg. Exporter "none" yields a no-op tracer.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (*Tracing, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Exporter {
	case "", "none":
		return &Tracing{Tracer: noop.NewTracerProvider().Tracer(InstrumentationName), logger: logger}, nil
	case "stdout":
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	logger.InfoContext(ctx, "tracing initialized", "exporter", cfg.Exporter)
	return &Tracing{
		Tracer: tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion)),
		tp:     tp,
		logger: logger,
	}, nil
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.tp == nil {
		return nil
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}
	return nil
}

// RunAttrs are attached to the root span of a run.
func RunAttrs(runID, index string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("hedgematch.run_id", runID),
		attribute.String("hedgematch.index", index),
	}
}

// RICAttr tags a span with the RIC it processes.
func RICAttr(ric string) attribute.KeyValue {
	return attribute.String("hedgematch.ric", ric)
}
