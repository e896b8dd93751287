package notification

import (
	"fmt"
	"time"

	notificationDatamodel "github.com/frahmantamala/genops/internal/core/datamodel/notification"
)

type Type string

const (
	TypeInvoiceCreated Type = "invoice_created"
	TypeInvoiceUpdated Type = "invoice_updated"
	TypeInvoicePaid    Type = "invoice_paid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Notification struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Priority     Priority  `json:"priority"`
	CreatedAt    time.Time `json:"createdAt"`
	Read         bool      `json:"read"`
	HasIndicator bool      `json:"hasIndicator"`
}

// ForInvoice builds the notification recorded for an invoice change.
func ForInvoice(t Type, invoiceID, companyName string, amount float64, at time.Time) *Notification {
	n := &Notification{
		Type:         t,
		CreatedAt:    at,
		HasIndicator: true,
	}

	subject := invoiceID
	if companyName != "" {
		subject = fmt.Sprintf("%s for %s", invoiceID, companyName)
	}

	switch t {
	case TypeInvoiceCreated:
		n.Title = "Invoice created"
		n.Message = fmt.Sprintf("Invoice %s was created (total %.2f).", subject, amount)
		n.Priority = PriorityMedium
	case TypeInvoiceUpdated:
		n.Title = "Invoice updated"
		n.Message = fmt.Sprintf("Invoice %s was updated (total %.2f).", subject, amount)
		n.Priority = PriorityLow
	case TypeInvoicePaid:
		n.Title = "Invoice paid"
		n.Message = fmt.Sprintf("Invoice %s was marked as paid.", subject)
		n.Priority = PriorityHigh
	default:
		n.Title = "Invoice changed"
		n.Message = fmt.Sprintf("Invoice %s changed.", subject)
		n.Priority = PriorityLow
	}
	return n
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		Type:         string(n.Type),
		Title:        n.Title,
		Message:      n.Message,
		Priority:     string(n.Priority),
		CreatedAt:    n.CreatedAt.UnixMilli(),
		Read:         n.Read,
		HasIndicator: n.HasIndicator,
	}
}

func FromDataModel(id string, dm *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:           id,
		Type:         Type(dm.Type),
		Title:        dm.Title,
		Message:      dm.Message,
		Priority:     Priority(dm.Priority),
		CreatedAt:    time.UnixMilli(dm.CreatedAt).UTC(),
		Read:         dm.Read,
		HasIndicator: dm.HasIndicator,
	}
}
