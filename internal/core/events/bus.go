package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

// BaseEvent carries the envelope shared by every dashboard event.
type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() interface{}  { return e.Data }

type Handler func(ctx context.Context, event Event) error

// EventBus fans invoice events out to subscribers. Asynchronous deliveries are
// tracked so shutdown can wait for in-flight notifications.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	inflight sync.WaitGroup
	closed   bool
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger.With("component", "events"),
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("subscribed", "event_type", eventType, "handlers", len(eb.handlers[eventType]))
}

func (eb *EventBus) subscribers(eventType string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return nil
	}
	return append([]Handler(nil), eb.handlers[eventType]...)
}

// Publish delivers the event to each subscriber on its own goroutine. The
// request context is detached so a finished request does not cancel delivery.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	handlers := eb.subscribers(event.EventType())
	if len(handlers) == 0 {
		eb.logger.Debug("no subscribers", "event_type", event.EventType())
		return nil
	}

	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		eb.inflight.Add(1)
		go func(h Handler) {
			defer eb.inflight.Done()
			if err := eb.deliver(detached, h, event); err != nil {
				eb.logger.Error("event delivery failed",
					"event_type", event.EventType(),
					"event_id", event.EventID(),
					"error", err)
			}
		}(handler)
	}
	return nil
}

// PublishSync delivers the event in subscription order and stops at the first failure.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	for _, handler := range eb.subscribers(event.EventType()) {
		if err := eb.deliver(ctx, handler, event); err != nil {
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

func (eb *EventBus) deliver(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, event)
}

// Close stops accepting new deliveries and waits for in-flight ones until ctx is done.
func (eb *EventBus) Close(ctx context.Context) error {
	eb.mu.Lock()
	eb.closed = true
	eb.mu.Unlock()

	done := make(chan struct{})
	go func() {
		eb.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		eb.logger.Warn("event deliveries still running at shutdown")
		return ctx.Err()
	}
}
