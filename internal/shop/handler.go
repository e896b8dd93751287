package shop

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/genops/internal/transport"
	"github.com/frahmantamala/genops/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Shop, error)
	GetByID(ctx context.Context, id string) (*Shop, error)
	Create(ctx context.Context, dto CreateShopDTO) (*Shop, error)
	Update(ctx context.Context, id string, dto UpdateShopDTO) (*Shop, error)
	Delete(ctx context.Context, id string) error
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

// ListShops handles GET /shops
func (h *Handler) ListShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"shops": shops,
	})
}

// GetShop handles GET /shops/{id}
func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	shop, err := h.Service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, shop)
}

// CreateShop handles POST /shops
func (h *Handler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var dto CreateShopDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	shop, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, shop)
}

// UpdateShop handles PATCH /shops/{id}
func (h *Handler) UpdateShop(w http.ResponseWriter, r *http.Request) {
	var dto UpdateShopDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	shop, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, shop)
}

// DeleteShop handles DELETE /shops/{id}
func (h *Handler) DeleteShop(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
