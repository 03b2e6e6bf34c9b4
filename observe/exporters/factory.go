// Package exporters provides factory functions for creating OpenTelemetry exporters.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names.
const (
	Stdout     = "stdout"
	OTLP       = "otlp"
	Jaeger     = "jaeger"
	Prometheus = "prometheus"
	None       = "none"
)

var (
	// ErrEndpointNotConfigured indicates the exporter endpoint env var is unset.
	ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")

	// ErrUnknownExporter indicates an unsupported exporter name.
	ErrUnknownExporter = errors.New("exporters: unknown exporter")
)

// IsTracingExporter reports whether name is a supported tracing exporter.
func IsTracingExporter(name string) bool {
	switch name {
	case Stdout, OTLP, Jaeger, None, "":
		return true
	}
	return false
}

// IsMetricsExporter reports whether name is a supported metrics exporter.
func IsMetricsExporter(name string) bool {
	switch name {
	case Stdout, OTLP, Prometheus, None, "":
		return true
	}
	return false
}

// endpointEnv lists, per network exporter, the variables that may carry its
// endpoint. The first non-empty one wins.
var endpointEnv = map[string][]string{
	"trace/" + OTLP:   {"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
	"trace/" + Jaeger: {"OTEL_EXPORTER_JAEGER_ENDPOINT"},
	"metric/" + OTLP:  {"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
}

// Endpoint returns the configured endpoint of a network exporter. signal is
// "trace" or "metric".
func Endpoint(signal, name string) (string, error) {
	keys := endpointEnv[signal+"/"+name]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s exporter %q: set one of %v", ErrEndpointNotConfigured, signal, name, keys)
}

// NewTracingExporter creates a span exporter by name. Empty and none
// discard spans.
func NewTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	switch name {
	case Stdout:
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	case OTLP:
		if _, err := Endpoint("trace", name); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	case Jaeger:
		// Jaeger ingests OTLP natively.
		endpoint, err := Endpoint("trace", name)
		if err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(endpoint))
	case None, "":
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
	}
	return nil, fmt.Errorf("%w: tracing %q", ErrUnknownExporter, name)
}

// NewMetricsReader creates a metrics reader by name. Prometheus returns a
// pull reader registered with the default Prometheus registerer; the others
// push periodically.
func NewMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	var (
		exp sdkmetric.Exporter
		err error
	)
	switch name {
	case Prometheus:
		reader, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		return reader, nil
	case Stdout:
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
	case OTLP:
		if _, err := Endpoint("metric", name); err != nil {
			return nil, err
		}
		exp, err = otlpmetricgrpc.New(ctx)
	case None, "":
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
	default:
		return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s metrics exporter: %w", name, err)
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}
