package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/common/validation"
	"github.com/frahmantamala/genops/internal/core/docstore"
)

// Validate returns the first failing rule of the draft, checked in order: id, company
// name, due date ordering, then every line in turn.
func Validate(d Draft) *internal.AppError {
	v := validation.NewValidator()

	v.Field("id", d.ID).Custom(func(value interface{}) *internal.AppError {
		id := strings.TrimSpace(value.(string))
		if id == "" {
			return internal.NewValidationFieldError("id", "Invoice ID is required.", internal.ErrCodeInvoiceIDRequired)
		}
		if !docstore.ValidKey(id) {
			return internal.NewValidationFieldError("id", "Invoice ID cannot contain / . # $ [ ]", internal.ErrCodeInvoiceIDInvalid)
		}
		return nil
	})

	v.Field("companyName", d.CompanyName).Custom(func(value interface{}) *internal.AppError {
		if strings.TrimSpace(value.(string)) == "" {
			return internal.NewValidationFieldError("companyName", "Company name is required.", internal.ErrCodeCompanyRequired)
		}
		return nil
	})

	var due time.Time
	if d.DueDate != nil {
		due = *d.DueDate
	}
	v.Field("dueDate", due).NotBefore(d.Date, internal.ErrCodeDueBeforeDate)

	for i, item := range d.LineItems {
		line := i + 1
		field := fmt.Sprintf("lineItems[%d]", i)
		v.Field(field, item).Custom(func(value interface{}) *internal.AppError {
			return validateLine(field, line, value.(LineItem))
		})
	}

	return v.ValidateFirst()
}

func validateLine(field string, line int, item LineItem) *internal.AppError {
	if strings.TrimSpace(item.Description) == "" {
		return internal.NewValidationFieldError(field+".description",
			fmt.Sprintf("Line %d: description is required.", line), internal.ErrCodeLineDescription)
	}

	if item.Amount != nil {
		if *item.Amount < 0 {
			return internal.NewValidationFieldError(field+".amount",
				fmt.Sprintf("Line %d: amount cannot be negative.", line), internal.ErrCodeLineAmount)
		}
		return nil
	}

	if valueOrZero(item.Qty) <= 0 {
		return internal.NewValidationFieldError(field+".qty",
			fmt.Sprintf("Line %d: quantity must be greater than 0.", line), internal.ErrCodeLineQuantity)
	}
	if valueOrZero(item.UnitPrice) < 0 {
		return internal.NewValidationFieldError(field+".unitPrice",
			fmt.Sprintf("Line %d: unit price cannot be negative.", line), internal.ErrCodeLineUnitPrice)
	}
	return nil
}

// InlineMessage is the single message shown next to the form for err.
func InlineMessage(err error) string {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		return internal.StoreErrorMessage(err)
	}
	if details, ok := appErr.Details.(internal.ValidationErrors); ok && len(details.Errors) > 0 {
		return details.Errors[0].Message
	}
	return appErr.Message
}

// FailureCode is the specific code of a validation failure.
func FailureCode(err *internal.AppError) string {
	if err == nil {
		return ""
	}
	if details, ok := err.Details.(internal.ValidationErrors); ok && len(details.Errors) > 0 {
		return details.Errors[0].Code
	}
	return string(err.Code)
}
