package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/genops/internal/core/events"
	"github.com/frahmantamala/genops/internal/invoice"
)

// Publisher turns editor notices into invoice events on the bus.
type Publisher struct {
	bus    *events.EventBus
	logger *slog.Logger
}

func NewPublisher(bus *events.EventBus, logger *slog.Logger) *Publisher {
	return &Publisher{bus: bus, logger: logger}
}

func (p *Publisher) Notify(ctx context.Context, kind invoice.NoticeKind, actorID string, inv *invoice.Invoice) error {
	event := events.NewInvoiceEvent(eventTypeFor(kind), inv.ID, actorID, inv.CompanyName, inv.Amount, string(inv.Status))
	return p.bus.Publish(ctx, event)
}

func eventTypeFor(kind invoice.NoticeKind) string {
	switch kind {
	case invoice.NoticeCreated:
		return events.EventTypeInvoiceCreated
	case invoice.NoticePaid:
		return events.EventTypeInvoicePaid
	default:
		return events.EventTypeInvoiceUpdated
	}
}

// Emitter is the part of Service the event handler needs.
type Emitter interface {
	Emit(ctx context.Context, userID string, n *Notification) (string, error)
}

// EventHandler records a notification for every invoice event.
type EventHandler struct {
	emitter Emitter
	timeout time.Duration
	logger  *slog.Logger
}

func NewEventHandler(emitter Emitter, timeout time.Duration, logger *slog.Logger) *EventHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EventHandler{emitter: emitter, timeout: timeout, logger: logger}
}

// Register subscribes the handler to every invoice event type.
func (h *EventHandler) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeInvoiceCreated, h.Handle)
	bus.Subscribe(events.EventTypeInvoiceUpdated, h.Handle)
	bus.Subscribe(events.EventTypeInvoicePaid, h.Handle)
}

// Handle outlives the request that published the event, so it runs on a detached
// context bounded by the handler timeout.
func (h *EventHandler) Handle(ctx context.Context, event events.Event) error {
	invoiceEvent, ok := event.(*events.InvoiceEvent)
	if !ok {
		h.logger.Warn("ignoring unexpected event payload", "event_type", event.EventType(), "event_id", event.EventID())
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	n := ForInvoice(typeForEvent(event.EventType()), invoiceEvent.InvoiceID, invoiceEvent.CompanyName, invoiceEvent.Amount, event.OccurredAt().UTC())
	if _, err := h.emitter.Emit(ctx, invoiceEvent.UserID, n); err != nil {
		h.logger.Error("failed to record invoice notification",
			"event_id", event.EventID(),
			"invoice_id", invoiceEvent.InvoiceID,
			"user_id", invoiceEvent.UserID,
			"error", err)
		return err
	}
	return nil
}

func typeForEvent(eventType string) Type {
	switch eventType {
	case events.EventTypeInvoiceCreated:
		return TypeInvoiceCreated
	case events.EventTypeInvoicePaid:
		return TypeInvoicePaid
	default:
		return TypeInvoiceUpdated
	}
}
