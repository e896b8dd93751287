package invoice

import (
	"strings"
	"time"

	"github.com/frahmantamala/genops/internal"
)

// OpenDraftDTO opens a blank draft, or an edit draft when InvoiceID is set.
type OpenDraftDTO struct {
	InvoiceID string `json:"invoiceId,omitempty"`
}

// DraftHeaderDTO carries the header fields to change. Nil fields are left alone.
type DraftHeaderDTO struct {
	ID           *string `json:"id,omitempty"`
	CompanyName  *string `json:"companyName,omitempty"`
	Description  *string `json:"description,omitempty"`
	Date         *string `json:"date,omitempty"`
	DueDate      *string `json:"dueDate,omitempty"`
	ClearDueDate bool    `json:"clearDueDate,omitempty"`
	Status       *string `json:"status,omitempty"`
}

type RowUpdateDTO struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

type StatusDTO struct {
	Status string `json:"status"`
}

type DraftResponse struct {
	DraftID string `json:"draftId"`
	Snapshot
}

type RowResponse struct {
	RowID string `json:"rowId"`
	DraftResponse
}

type SubmitResponse struct {
	Invoice *Invoice `json:"invoice"`
	Closed  bool     `json:"closed"`
}

type InvoicesResponse struct {
	Invoices []*Invoice `json:"invoices"`
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseDate accepts calendar dates and RFC 3339 timestamps.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, internal.NewValidationFieldError(field, field+" must be a date (YYYY-MM-DD)", internal.ErrCodeInvalidDate)
}

// Apply writes the header changes onto editor.
func (dto DraftHeaderDTO) Apply(editor *Editor) error {
	if dto.ID != nil {
		if err := editor.SetID(*dto.ID); err != nil {
			return err
		}
	}
	if dto.CompanyName != nil {
		editor.SetCompanyName(*dto.CompanyName)
	}
	if dto.Description != nil {
		editor.SetDescription(*dto.Description)
	}
	if dto.Date != nil {
		date, err := ParseDate("date", *dto.Date)
		if err != nil {
			return err
		}
		editor.SetDate(date)
	}
	switch {
	case dto.ClearDueDate:
		editor.SetDueDate(nil)
	case dto.DueDate != nil:
		due, err := ParseDate("dueDate", *dto.DueDate)
		if err != nil {
			return err
		}
		editor.SetDueDate(&due)
	}
	if dto.Status != nil {
		if err := editor.SetStatus(Status(*dto.Status)); err != nil {
			return err
		}
	}
	return nil
}
