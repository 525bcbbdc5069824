package otel

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/driveloop/fleetlink/observe"
)

func attrToMap(attrs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value.Emit()
	}
	return out
}

func TestSinkEmitsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	sink := NewSink(tp)

	err := sink.Emit(context.Background(), observe.Event{
		Kind:       observe.KindRequest,
		Provider:   "verizon",
		TraceID:    "trace-123",
		Status:     observe.StatusCompleted,
		Timestamp:  time.Now(),
		DurationMs: 42,
	})
	if err != nil {
		t.Fatal(err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if span.Name != "fleet.request.verizon" {
		t.Errorf("unexpected span name %q", span.Name)
	}
	attrMap := attrToMap(span.Attributes)
	if attrMap["fleet.provider"] != "verizon" {
		t.Errorf("missing or wrong fleet.provider: %v", attrMap)
	}
	if attrMap["fleet.trace.id"] != "trace-123" {
		t.Errorf("missing or wrong fleet.trace.id: %v", attrMap)
	}
}

func TestSinkMarksFailuresAsErrors(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	sink := NewSink(tp)
	err := sink.Emit(context.Background(), observe.Event{
		Kind:     observe.KindAuth,
		Provider: "webfleet",
		Status:   observe.StatusFailed,
		Error:    "login rejected",
	})
	if err != nil {
		t.Fatal(err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status)
	}
}

func TestNewSinkNilProvider(t *testing.T) {
	sink := NewSink(nil)
	if err := sink.Emit(context.Background(), observe.Event{Kind: observe.KindCache}); err != nil {
		t.Fatalf("noop emit failed: %v", err)
	}
}
