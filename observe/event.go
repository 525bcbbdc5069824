// Package observe instruments the gateway: provider requests, authentication
// exchanges, and token-cache activity are emitted as events that sinks can
// forward to logs or tracing backends.
package observe

import "time"

type Kind string

type Status string

const (
	KindRequest   Kind = "request"
	KindAuth      Kind = "auth"
	KindVehicles  Kind = "vehicles"
	KindTrips     Kind = "trips"
	KindLocations Kind = "locations"
	KindCache     Kind = "cache"
	KindCustom    Kind = "custom"
)

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event is one gateway occurrence. Attributes must never contain credentials
// or tokens; emitters are responsible for masking.
type Event struct {
	ID         string         `json:"id,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	TraceID    string         `json:"traceId,omitempty"`
	Provider   string         `json:"provider,omitempty"`
	Kind       Kind           `json:"kind"`
	Status     Status         `json:"status,omitempty"`
	Name       string         `json:"name,omitempty"`
	Message    string         `json:"message,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"durationMs,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func (e *Event) Normalize() {
	if e == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Kind == "" {
		e.Kind = KindCustom
	}
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}
}
