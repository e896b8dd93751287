package panel

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/navigation"
	"github.com/frahmantamala/genops/internal/role"
	"github.com/frahmantamala/genops/internal/transport"
	"github.com/frahmantamala/genops/pkg/logger"
)

type NavigateDTO struct {
	Page        string `json:"page,omitempty"`
	GeneratorID string `json:"generatorId,omitempty"`
}

type Handler struct {
	*transport.BaseHandler
	Registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Registry:    registry,
	}
}

// GetPanel handles GET /panel
func (h *Handler) GetPanel(w http.ResponseWriter, r *http.Request) {
	clientID := internal.ClientIDFromContext(r.Context())
	view := h.Registry.Mount(clientID, roleOf(r), r.URL.Query())
	h.WriteJSON(w, http.StatusOK, view)
}

// Navigate handles POST /panel/navigate
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var dto NavigateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	clientID := internal.ClientIDFromContext(r.Context())
	current := roleOf(r)

	switch {
	case strings.TrimSpace(dto.GeneratorID) != "":
		view, ok := h.Registry.SelectGenerator(clientID, current, dto.GeneratorID)
		if !ok {
			h.WriteAppError(w, internal.NewValidationFieldError("generatorId",
				"generator selection is not available on this panel", internal.ErrCodeValidationFailed))
			return
		}
		h.WriteJSON(w, http.StatusOK, view)
	case strings.TrimSpace(dto.Page) != "":
		view := h.Registry.Navigate(clientID, current, navigation.Page(strings.TrimSpace(dto.Page)))
		h.WriteJSON(w, http.StatusOK, view)
	default:
		h.WriteAppError(w, internal.NewValidationFieldError("page", "page or generatorId is required", internal.ErrCodeValidationFailed))
	}
}

func roleOf(r *http.Request) role.Role {
	current, ok := role.Parse(internal.RoleFromContext(r.Context()))
	if !ok {
		return role.Admin
	}
	return current
}
