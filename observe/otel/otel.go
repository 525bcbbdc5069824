// Package otel bridges observe.Sink to OpenTelemetry tracing.
//
// It converts gateway events into OTel spans so provider requests and
// authentication exchanges show up in any OpenTelemetry-compatible backend.
package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/driveloop/fleetlink/observe"
)

const instrumentationName = "github.com/driveloop/fleetlink"

// Sink implements observe.Sink by emitting OpenTelemetry spans.
type Sink struct {
	tracer trace.Tracer
}

// NewSink creates an OTel sink using the given TracerProvider. A nil provider
// falls back to a noop tracer.
func NewSink(tp trace.TracerProvider) *Sink {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Sink{tracer: tp.Tracer(instrumentationName)}
}

// Emit converts one gateway event into an OTel span.
func (s *Sink) Emit(_ context.Context, event observe.Event) error {
	event.Normalize()

	_, span := s.tracer.Start(context.Background(), spanNameFor(event), trace.WithTimestamp(event.Timestamp))

	attrs := []attribute.KeyValue{
		attribute.String("fleet.event.kind", string(event.Kind)),
	}
	if event.TraceID != "" {
		attrs = append(attrs, attribute.String("fleet.trace.id", event.TraceID))
	}
	if event.Provider != "" {
		attrs = append(attrs, attribute.String("fleet.provider", event.Provider))
	}
	if event.Name != "" {
		attrs = append(attrs, attribute.String("fleet.event.name", event.Name))
	}
	if event.Status != "" {
		attrs = append(attrs, attribute.String("fleet.status", string(event.Status)))
	}
	if event.Message != "" {
		attrs = append(attrs, attribute.String("fleet.message", truncate(event.Message, 1024)))
	}
	if event.DurationMs > 0 {
		attrs = append(attrs, attribute.Int64("fleet.duration_ms", event.DurationMs))
	}
	for k, v := range event.Attributes {
		attrs = append(attrs, attribute.String("fleet.attr."+k, fmt.Sprintf("%v", v)))
	}
	span.SetAttributes(attrs...)

	switch event.Status {
	case observe.StatusFailed:
		span.SetStatus(codes.Error, event.Error)
		if event.Error != "" {
			span.RecordError(fmt.Errorf("%s", event.Error))
		}
	case observe.StatusCompleted:
		span.SetStatus(codes.Ok, "")
	}

	endTime := event.Timestamp
	if event.DurationMs > 0 {
		endTime = endTime.Add(time.Duration(event.DurationMs) * time.Millisecond)
	}
	span.End(trace.WithTimestamp(endTime))
	return nil
}

func spanNameFor(event observe.Event) string {
	prefix := "fleet."
	switch event.Kind {
	case observe.KindRequest:
		if event.Provider != "" {
			return prefix + "request." + event.Provider
		}
		return prefix + "request"
	case observe.KindAuth:
		if event.Provider != "" {
			return prefix + "auth." + event.Provider
		}
		return prefix + "auth"
	case observe.KindCache:
		return prefix + "cache"
	case observe.KindVehicles, observe.KindTrips, observe.KindLocations:
		if event.Provider != "" {
			return prefix + string(event.Kind) + "." + event.Provider
		}
		return prefix + string(event.Kind)
	default:
		if event.Name != "" {
			return prefix + event.Name
		}
		return prefix + "event"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
