package observe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

type Sink interface {
	Emit(ctx context.Context, event Event) error
}

type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Emit(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type NoopSink struct{}

func (NoopSink) Emit(context.Context, Event) error { return nil }

// NewLogSink writes events as JSON lines. A nil writer defaults to stderr.
func NewLogSink(w io.Writer) Sink {
	if w == nil {
		w = os.Stderr
	}
	var mu sync.Mutex
	return SinkFunc(func(_ context.Context, event Event) error {
		event.Normalize()
		line, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		mu.Lock()
		defer mu.Unlock()
		_, err = fmt.Fprintln(w, string(line))
		return err
	})
}

// NewMultiSink fans events out to every non-nil sink, stopping at the first
// failure.
func NewMultiSink(sinks ...Sink) Sink {
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	switch len(kept) {
	case 0:
		return NoopSink{}
	case 1:
		return kept[0]
	}
	return SinkFunc(func(ctx context.Context, event Event) error {
		for _, s := range kept {
			if err := s.Emit(ctx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

// WithTraceID stamps every emitted event with the given trace id so one
// sync run or CLI invocation can be followed across providers.
func WithTraceID(downstream Sink, traceID string) Sink {
	if downstream == nil {
		downstream = NoopSink{}
	}
	return SinkFunc(func(ctx context.Context, event Event) error {
		if event.TraceID == "" {
			event.TraceID = traceID
		}
		return downstream.Emit(ctx, event)
	})
}

// AsyncSink decouples emitters from slow downstreams. Events are dropped
// under pressure rather than blocking the request path.
type AsyncSink struct {
	downstream Sink
	queue      chan Event
	done       chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewAsyncSink(downstream Sink, buffer int) *AsyncSink {
	if downstream == nil {
		downstream = NoopSink{}
	}
	if buffer <= 0 {
		buffer = 256
	}
	as := &AsyncSink{
		downstream: downstream,
		queue:      make(chan Event, buffer),
		done:       make(chan struct{}),
	}
	go as.loop()
	return as
}

func (s *AsyncSink) Emit(ctx context.Context, event Event) error {
	if s == nil {
		return nil
	}
	event.Normalize()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// The send happens under the lock so Close cannot shut the queue
	// between the closed check and the send.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	select {
	case s.queue <- event:
	default:
	}
	return nil
}

// Close stops the drain loop after the queued events are flushed. Emits
// after Close are silently dropped.
func (s *AsyncSink) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *AsyncSink) loop() {
	defer close(s.done)
	for event := range s.queue {
		_ = s.downstream.Emit(context.Background(), event)
	}
}
