package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// FuncMeta describes a memoized function for telemetry purposes.
type FuncMeta struct {
	ID        string // Fully qualified ID (namespace.name or just name)
	Namespace string // Cache namespace (may be empty)
	Name      string // Function name (required)
	Store     string // Backing store name (optional)
}

// SpanName returns the deterministic span name for this function.
// Format: memo.call.<namespace>.<name> or memo.call.<name>
func (m FuncMeta) SpanName() string {
	if m.Namespace != "" {
		return "memo.call." + m.Namespace + "." + m.Name
	}
	return "memo.call." + m.Name
}

// FuncID returns the fully qualified function identifier.
func (m FuncMeta) FuncID() string {
	if m.ID != "" {
		return m.ID
	}
	if m.Namespace != "" {
		return m.Namespace + "." + m.Name
	}
	return m.Name
}

// Validate reports whether the metadata is usable.
func (m FuncMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingFuncName
	}
	return nil
}

// Outcome classifies how a memoized call was served.
type Outcome string

const (
	// OutcomeHit means the result came from the store.
	OutcomeHit Outcome = "hit"
	// OutcomeMiss means the function ran and its result was stored.
	OutcomeMiss Outcome = "miss"
	// OutcomeEscaped means the function ran and the escape predicate
	// kept its result out of the store.
	OutcomeEscaped Outcome = "escaped"
	// OutcomeError means the call failed.
	OutcomeError Outcome = "error"
)

// Tracer wraps OpenTelemetry tracing with memoized-call span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a memoized call.
	StartSpan(ctx context.Context, meta FuncMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome and any error.
	EndSpan(span trace.Span, outcome Outcome, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta FuncMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("func.id", meta.FuncID()),
		attribute.String("func.name", meta.Name),
		attribute.Bool("memo.error", false),
	}
	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("func.namespace", meta.Namespace))
	}
	if meta.Store != "" {
		attrs = append(attrs, attribute.String("cache.store", meta.Store))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, outcome Outcome, err error) {
	span.SetAttributes(attribute.String("memo.outcome", string(outcome)))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("memo.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta FuncMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ Outcome, _ error) {
	span.End()
}
