package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeInvoiceCreated = "invoice.created"
	EventTypeInvoiceUpdated = "invoice.updated"
	EventTypeInvoicePaid    = "invoice.paid"
)

// InvoiceEvent is published after an invoice write has been acknowledged by the store.
type InvoiceEvent struct {
	BaseEvent
	InvoiceID   string  `json:"invoice_id"`
	UserID      string  `json:"user_id"`
	CompanyName string  `json:"company_name"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
}

func NewInvoiceEvent(eventType, invoiceID, userID, companyName string, amount float64, status string) *InvoiceEvent {
	return &InvoiceEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"invoice_id":   invoiceID,
				"user_id":      userID,
				"company_name": companyName,
				"amount":       amount,
				"status":       status,
			},
		},
		InvoiceID:   invoiceID,
		UserID:      userID,
		CompanyName: companyName,
		Amount:      amount,
		Status:      status,
	}
}
