package invoice

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/transport"
	"github.com/frahmantamala/genops/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Invoice, error)
	GetByID(ctx context.Context, id string) (*Invoice, error)
	UpdateStatus(ctx context.Context, actorID, id string, status Status) (*Invoice, error)
	OpenDraft(ctx context.Context, clientID, invoiceID string) (string, *Editor, error)
	Draft(clientID, draftID string) (*Editor, error)
	CloseDraft(clientID, draftID string)
	SubmitDraft(ctx context.Context, clientID, draftID, actorID string) (*Invoice, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListInvoices handles GET /invoices
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, InvoicesResponse{Invoices: invoices})
}

// GetInvoice handles GET /invoices/{id}
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, inv)
}

// UpdateStatus handles PATCH /invoices/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var dto StatusDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	uid := internal.UserIDFromContext(r.Context())
	inv, err := h.Service.UpdateStatus(r.Context(), uid, chi.URLParam(r, "id"), Status(dto.Status))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, inv)
}

// OpenDraft handles POST /invoices/drafts
func (h *Handler) OpenDraft(w http.ResponseWriter, r *http.Request) {
	var dto OpenDraftDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	draftID, editor, err := h.Service.OpenDraft(r.Context(), internal.ClientIDFromContext(r.Context()), dto.InvoiceID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, DraftResponse{DraftID: draftID, Snapshot: editor.Snapshot()})
}

// GetDraft handles GET /invoices/drafts/{draftId}
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draftID, editor, ok := h.draft(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, DraftResponse{DraftID: draftID, Snapshot: editor.Snapshot()})
}

// UpdateDraft handles PATCH /invoices/drafts/{draftId}
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	draftID, editor, ok := h.draft(w, r)
	if !ok {
		return
	}

	var dto DraftHeaderDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if err := dto.Apply(editor); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, DraftResponse{DraftID: draftID, Snapshot: editor.Snapshot()})
}

// CloseDraft handles DELETE /invoices/drafts/{draftId}
func (h *Handler) CloseDraft(w http.ResponseWriter, r *http.Request) {
	h.Service.CloseDraft(internal.ClientIDFromContext(r.Context()), chi.URLParam(r, "draftId"))
	w.WriteHeader(http.StatusNoContent)
}

// AddRow handles POST /invoices/drafts/{draftId}/rows
func (h *Handler) AddRow(w http.ResponseWriter, r *http.Request) {
	draftID, editor, ok := h.draft(w, r)
	if !ok {
		return
	}
	rowID := editor.AddRow()
	h.WriteJSON(w, http.StatusCreated, RowResponse{
		RowID:         rowID,
		DraftResponse: DraftResponse{DraftID: draftID, Snapshot: editor.Snapshot()},
	})
}

// UpdateRow handles PATCH /invoices/drafts/{draftId}/rows/{rowId}
func (h *Handler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	draftID, editor, ok := h.draft(w, r)
	if !ok {
		return
	}

	var dto RowUpdateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	rowID := chi.URLParam(r, "rowId")
	if err := editor.UpdateRow(rowID, Field(dto.Field), dto.Value); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RowResponse{
		RowID:         rowID,
		DraftResponse: DraftResponse{DraftID: draftID, Snapshot: editor.Snapshot()},
	})
}

// RemoveRow handles DELETE /invoices/drafts/{draftId}/rows/{rowId}
func (h *Handler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	draftID, editor, ok := h.draft(w, r)
	if !ok {
		return
	}
	editor.RemoveRow(chi.URLParam(r, "rowId"))
	h.WriteJSON(w, http.StatusOK, DraftResponse{DraftID: draftID, Snapshot: editor.Snapshot()})
}

// SubmitDraft handles POST /invoices/drafts/{draftId}/submit
func (h *Handler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := internal.ClientIDFromContext(ctx)
	draftID := chi.URLParam(r, "draftId")

	inv, err := h.Service.SubmitDraft(ctx, clientID, draftID, internal.UserIDFromContext(ctx))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SubmitResponse{Invoice: inv, Closed: true})
}

func (h *Handler) draft(w http.ResponseWriter, r *http.Request) (string, *Editor, bool) {
	draftID := chi.URLParam(r, "draftId")
	editor, err := h.Service.Draft(internal.ClientIDFromContext(r.Context()), draftID)
	if err != nil {
		h.HandleServiceError(w, err)
		return "", nil, false
	}
	return draftID, editor, true
}
