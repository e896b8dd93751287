package invoice

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	invoiceDatamodel "github.com/frahmantamala/genops/internal/core/datamodel/invoice"
)

type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
	StatusOverdue Status = "Overdue"
)

var Statuses = []string{string(StatusPending), string(StatusPaid), string(StatusOverdue)}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// LineItem is one row of an invoice. A nil number is unset.
type LineItem struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Qty         *float64 `json:"qty"`
	UnitPrice   *float64 `json:"unitPrice"`
	Amount      *float64 `json:"amount"`
}

// Draft is the editable surface of an invoice.
type Draft struct {
	ID          string     `json:"id"`
	CompanyName string     `json:"companyName"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
	DueDate     *time.Time `json:"dueDate"`
	Status      Status     `json:"status"`
	LineItems   []LineItem `json:"lineItems"`
}

// Invoice is a persisted invoice: the draft fields plus the computed amount.
type Invoice struct {
	ID          string     `json:"id"`
	CompanyName string     `json:"companyName"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
	DueDate     *time.Time `json:"dueDate"`
	Status      Status     `json:"status"`
	LineItems   []LineItem `json:"lineItems"`
	Amount      float64    `json:"amount"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
}

// ParseNumber coerces an edited value to a number. Empty and non-numeric input is unset.
func ParseNumber(value any) *float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// LineTotal is max(0, amount) when the amount override is set, otherwise
// max(0, qty * unitPrice) with unset numbers counting as 0.
func LineTotal(item LineItem) float64 {
	if item.Amount != nil {
		return math.Max(0, *item.Amount)
	}
	return math.Max(0, valueOrZero(item.Qty)*valueOrZero(item.UnitPrice))
}

func ComputeTotals(items []LineItem) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += LineTotal(item)
	}
	return Totals{Subtotal: subtotal, Total: subtotal}
}

func valueOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func float(f float64) *float64 {
	return &f
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = LineItem{
			ID:          item.ID,
			Description: item.Description,
			Qty:         cloneNumber(item.Qty),
			UnitPrice:   cloneNumber(item.UnitPrice),
			Amount:      cloneNumber(item.Amount),
		}
	}
	return out
}

func cloneNumber(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func (d Draft) clone() Draft {
	out := d
	out.LineItems = cloneItems(d.LineItems)
	if d.DueDate != nil {
		due := *d.DueDate
		out.DueDate = &due
	}
	return out
}

func ToDataModel(inv *Invoice) *invoiceDatamodel.Invoice {
	items := make([]invoiceDatamodel.LineItem, len(inv.LineItems))
	for i, item := range inv.LineItems {
		items[i] = invoiceDatamodel.LineItem{
			ID:          item.ID,
			Description: item.Description,
			Qty:         item.Qty,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}

	var due *int64
	if inv.DueDate != nil {
		ms := inv.DueDate.UnixMilli()
		due = &ms
	}

	return &invoiceDatamodel.Invoice{
		ID:          inv.ID,
		CompanyName: inv.CompanyName,
		Description: inv.Description,
		Date:        inv.Date.UnixMilli(),
		DueDate:     due,
		Status:      string(inv.Status),
		LineItems:   items,
		Amount:      inv.Amount,
		CreatedBy:   inv.CreatedBy,
		UpdatedAt:   inv.UpdatedAt.UnixMilli(),
	}
}

// FromDataModel converts a stored invoice. id is the document key and wins over the
// id field of the body.
func FromDataModel(id string, dm *invoiceDatamodel.Invoice) *Invoice {
	items := make([]LineItem, len(dm.LineItems))
	for i, item := range dm.LineItems {
		items[i] = LineItem{
			ID:          item.ID,
			Description: item.Description,
			Qty:         item.Qty,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}

	var due *time.Time
	if dm.DueDate != nil {
		t := time.UnixMilli(*dm.DueDate).UTC()
		due = &t
	}

	status := Status(dm.Status)
	if !status.Valid() {
		status = StatusPending
	}

	return &Invoice{
		ID:          id,
		CompanyName: dm.CompanyName,
		Description: dm.Description,
		Date:        time.UnixMilli(dm.Date).UTC(),
		DueDate:     due,
		Status:      status,
		LineItems:   items,
		Amount:      dm.Amount,
		CreatedBy:   dm.CreatedBy,
		UpdatedAt:   time.UnixMilli(dm.UpdatedAt).UTC(),
	}
}

// PayloadFields renders the stored shape of inv as update fields. A nil due date
// becomes a nil field so the update clears it.
func PayloadFields(inv *Invoice) (map[string]any, error) {
	raw, err := json.Marshal(ToDataModel(inv))
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["description"] = inv.Description
	return fields, nil
}

// StatusFields is the whole payload of a status change.
func StatusFields(status Status, at time.Time) map[string]any {
	return map[string]any{
		"status":    string(status),
		"updatedAt": at.UnixMilli(),
	}
}

// IsOverdue reports whether a pending invoice is past its due date at now.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	return inv.Status == StatusPending && inv.DueDate != nil && inv.DueDate.Before(now)
}
