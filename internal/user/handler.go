package user

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
	GetByUID(ctx context.Context, uid string) (*User, error)
	ListOperators(ctx context.Context) ([]*User, error)
}

// Profile is a stored profile plus the role the dashboard dispatches on.
type Profile struct {
	*User
	DashboardRole string `json:"dashboardRole"`
}

func newProfile(u *User) Profile {
	return Profile{User: u, DashboardRole: u.DashboardRole().String()}
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
		BaseHandler: transport.NewBaseHandler(lg.With("handler", "users")),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	uid := internal.UserIDFromContext(r.Context())
	if uid == "" {
		h.WriteAppError(w, internal.ErrNotSignedIn)
		return
	}
	h.writeProfile(w, r, uid)
}

// GetUser handles GET /users/{uid}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, chi.URLParam(r, "uid"))
}

func (h *Handler) writeProfile(w http.ResponseWriter, r *http.Request, uid string) {
	u, err := h.Service.GetByUID(r.Context(), uid)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, newProfile(u))
}

// ListOperators handles GET /users/operators
func (h *Handler) ListOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.Service.ListOperators(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if operators == nil {
		operators = []*User{}
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"operators": operators,
	})
}
