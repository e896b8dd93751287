package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/genops/internal/core/docstore"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"

	ErrCodeInvoiceIDRequired   ErrorCode = "INVOICE_ID_REQUIRED"
	ErrCodeInvoiceIDInvalid    ErrorCode = "INVOICE_ID_INVALID"
	ErrCodeCompanyRequired     ErrorCode = "COMPANY_REQUIRED"
	ErrCodeDueBeforeDate       ErrorCode = "DUE_BEFORE_DATE"
	ErrCodeLineDescription     ErrorCode = "LINE_DESCRIPTION_REQUIRED"
	ErrCodeLineAmount          ErrorCode = "LINE_AMOUNT_NEGATIVE"
	ErrCodeLineQuantity        ErrorCode = "LINE_QUANTITY_INVALID"
	ErrCodeLineUnitPrice       ErrorCode = "LINE_UNIT_PRICE_NEGATIVE"
	ErrCodeInvoiceDuplicateID  ErrorCode = "INVOICE_DUPLICATE_ID"
	ErrCodeInvoiceNotFound     ErrorCode = "INVOICE_NOT_FOUND"
	ErrCodeInvoiceIDImmutable  ErrorCode = "INVOICE_ID_IMMUTABLE"
	ErrCodeDraftNotFound       ErrorCode = "DRAFT_NOT_FOUND"
	ErrCodeRowNotFound         ErrorCode = "ROW_NOT_FOUND"
	ErrCodeEditorBusy          ErrorCode = "EDITOR_BUSY"
	ErrCodeEditorModeMismatch  ErrorCode = "EDITOR_MODE_MISMATCH"
	ErrCodeShopNotFound        ErrorCode = "SHOP_NOT_FOUND"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	ErrCodeNotificationMissing ErrorCode = "NOTIFICATION_NOT_FOUND"

	ErrCodeNotSignedIn   ErrorCode = "NOT_SIGNED_IN"
	ErrCodeInvalidToken  ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired  ErrorCode = "TOKEN_EXPIRED"
	ErrCodeForbiddenRole ErrorCode = "FORBIDDEN_ROLE"

	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {

			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrInvoiceNotFound = NewNotFoundError("Invoice not found", ErrCodeInvoiceNotFound)
	ErrDraftNotFound   = NewNotFoundError("Invoice draft not found", ErrCodeDraftNotFound)
	ErrRowNotFound     = NewNotFoundError("Line item not found", ErrCodeRowNotFound)
	ErrEditorBusy      = NewConflictError("A save is already in progress", ErrCodeEditorBusy)
	ErrShopNotFound    = NewNotFoundError("Shop not found", ErrCodeShopNotFound)
	ErrUserNotFound    = NewNotFoundError("User not found", ErrCodeUserNotFound)

	ErrNotSignedIn   = NewUnauthorizedError("Sign in to continue", ErrCodeNotSignedIn)
	ErrInvalidToken  = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired  = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrForbiddenRole = NewForbiddenError("Your role cannot access this resource", ErrCodeForbiddenRole)
)

const (
	PermissionDeniedMessage = "You do not have permission to perform this action."
	GenericFailureMessage   = "Something went wrong. Please try again."
)

// StoreErrorMessage turns a store failure into the text shown in the failure banner.
func StoreErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if docstore.IsPermissionDenied(err) {
		return PermissionDeniedMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return GenericFailureMessage
}

// FromStoreError maps a store failure onto the AppError taxonomy.
func FromStoreError(err error) *AppError {
	if appErr, ok := IsAppError(err); ok {
		return appErr
	}
	switch docstore.CodeOf(err) {
	case docstore.CodePermissionDenied:
		return NewForbiddenError(PermissionDeniedMessage, ErrCodePermissionDenied).WithCause(err)
	case docstore.CodeInvalidArgument:
		return NewValidationError(err.Error(), ErrCodeValidationFailed).WithCause(err)
	case docstore.CodeUnavailable:
		return &AppError{
			Type:       ErrorTypeExternal,
			Code:       ErrCodeStoreUnavailable,
			Message:    StoreErrorMessage(err),
			StatusCode: http.StatusServiceUnavailable,
			Cause:      err,
		}
	default:
		return NewInternalError(GenericFailureMessage, err)
	}
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
