package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/frahmantamala/genops/pkg/logger"
)

// BaseHandler carries the logger and response helpers shared by every dashboard handler.
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteAppError writes err in the {"error": {...}} envelope.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, err *internal.AppError) {
	status, body := err.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps a service failure onto a response. Validation failures are
// expected user input problems and are not logged as errors.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		switch appErr.Type {
		case internal.ErrorTypeValidation:
		case internal.ErrorTypeInternal:
			h.Logger.Error("request failed", "code", appErr.Code, "error", err)
		default:
			h.Logger.Warn("request failed", "code", appErr.Code, "error", err)
		}
		h.WriteAppError(w, appErr)
		return
	}

	if docstore.CodeOf(err) != "" {
		h.Logger.Error("store operation failed", "error", err)
		h.WriteAppError(w, internal.FromStoreError(err))
		return
	}

	h.Logger.Error("unexpected service error", "error", err)
	h.WriteAppError(w, internal.NewInternalError(internal.GenericFailureMessage, err))
}

// DecodeJSON decodes the request body into dst. Malformed or empty bodies are
// answered with VALIDATION_FAILED and false is returned.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		logger.FromOr(r.Context(), h.Logger).Warn("invalid request body", "path", r.URL.Path, "error", err)
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return false
	}
	return true
}
