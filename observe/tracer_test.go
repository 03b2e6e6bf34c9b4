package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestFuncMeta_SpanName(t *testing.T) {
	tests := []struct {
		meta FuncMeta
		want string
	}{
		{FuncMeta{Namespace: "geo", Name: "lookup"}, "memo.call.geo.lookup"},
		{FuncMeta{Name: "lookup"}, "memo.call.lookup"},
	}
	for _, tt := range tests {
		if got := tt.meta.SpanName(); got != tt.want {
			t.Errorf("SpanName() = %q, want %q", got, tt.want)
		}
	}
}

func TestFuncMeta_FuncID(t *testing.T) {
	tests := []struct {
		name string
		meta FuncMeta
		want string
	}{
		{"explicit id", FuncMeta{ID: "custom", Namespace: "geo", Name: "lookup"}, "custom"},
		{"namespaced", FuncMeta{Namespace: "geo", Name: "lookup"}, "geo.lookup"},
		{"bare", FuncMeta{Name: "lookup"}, "lookup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.FuncID(); got != tt.want {
				t.Errorf("FuncID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFuncMeta_Validate(t *testing.T) {
	if err := (FuncMeta{}).Validate(); !errors.Is(err, ErrMissingFuncName) {
		t.Errorf("Validate() = %v, want %v", err, ErrMissingFuncName)
	}
	if err := (FuncMeta{Name: "lookup"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	m := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := &tracerImpl{tracer: tp.Tracer("test")}

	meta := FuncMeta{Namespace: "geo", Name: "lookup", Store: "lru"}
	_, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, OutcomeHit, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "memo.call.geo.lookup" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}

	attrs := spanAttrs(s)
	want := map[string]string{
		"func.id":        "geo.lookup",
		"func.name":      "lookup",
		"func.namespace": "geo",
		"cache.store":    "lru",
		"memo.outcome":   "hit",
	}
	for k, v := range want {
		if got, ok := attrs[k]; !ok || got.AsString() != v {
			t.Errorf("%s = %v, want %q", k, got, v)
		}
	}
	if attrs["memo.error"].AsBool() {
		t.Error("expected memo.error=false")
	}
}

func TestTracer_SpanAttributesMinimal(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := &tracerImpl{tracer: tp.Tracer("test")}

	_, span := tr.StartSpan(context.Background(), FuncMeta{Name: "lookup"})
	tr.EndSpan(span, OutcomeMiss, nil)

	attrs := spanAttrs(recorder.Ended()[0])
	if _, ok := attrs["func.namespace"]; ok {
		t.Error("unexpected func.namespace attribute")
	}
	if _, ok := attrs["cache.store"]; ok {
		t.Error("unexpected cache.store attribute")
	}
}

func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")
	tr := &tracerImpl{tracer: tracer}

	parentCtx, parentSpan := tracer.Start(context.Background(), "parent")
	_, childSpan := tr.StartSpan(parentCtx, FuncMeta{Name: "child"})
	tr.EndSpan(childSpan, OutcomeMiss, nil)
	parentSpan.End()

	var child sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "memo.call.child" {
			child = s
		}
	}
	if child == nil {
		t.Fatal("child span not found")
	}
	if child.Parent().TraceID() != parentSpan.SpanContext().TraceID() {
		t.Error("child span should share the parent trace ID")
	}
	if child.Parent().SpanID() != parentSpan.SpanContext().SpanID() {
		t.Error("child span should reference the parent span ID")
	}
}

func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := &tracerImpl{tracer: tp.Tracer("test")}

	_, span := tr.StartSpan(context.Background(), FuncMeta{Name: "failing"})
	tr.EndSpan(span, OutcomeError, errors.New("compute failed"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status().Code)
	}
	attrs := spanAttrs(s)
	if !attrs["memo.error"].AsBool() {
		t.Error("expected memo.error=true")
	}
	if attrs["memo.outcome"].AsString() != "error" {
		t.Errorf("memo.outcome = %q", attrs["memo.outcome"].AsString())
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}
}
