package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/identity"
	"github.com/frahmantamala/genops/internal/transport"
	"github.com/frahmantamala/genops/pkg/logger"
	"github.com/google/uuid"
)

// SignInProvider accepts provider ID tokens for a client.
type SignInProvider interface {
	identity.Provider
	SignIn(ctx context.Context, clientID, idToken string) (*identity.Identity, error)
}

type SignInDTO struct {
	IDToken string `json:"idToken"`
}

type LogoutResponse struct {
	Redirect string `json:"redirect"`
}

type Handler struct {
	*transport.BaseHandler
	Cookies  *scs.SessionManager
	Manager  *Manager
	Provider SignInProvider
}

func NewHandler(cookies *scs.SessionManager, manager *Manager, provider SignInProvider) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Cookies:     cookies,
		Manager:     manager,
		Provider:    provider,
	}
}

// ClientID returns the id stored in the client cookie session, assigning one on first use.
func (h *Handler) ClientID(r *http.Request) string {
	ctx := r.Context()
	clientID := h.Cookies.GetString(ctx, clientIDKey)
	if clientID == "" {
		clientID = uuid.NewString()
		h.Cookies.Put(ctx, clientIDKey, clientID)
	}
	return clientID
}

// Attach resolves the client's session and puts the client id and, when signed in,
// the uid and dashboard role on the request context. It must run inside Cookies.LoadAndSave.
func (h *Handler) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := h.ClientID(r)
		state := h.Manager.Get(clientID).State()

		ctx := internal.ContextWithClientID(r.Context(), clientID)
		if state.IsLoggedIn {
			ctx = internal.ContextWithUserID(ctx, state.UID)
			ctx = internal.ContextWithRole(ctx, state.Role.String())
			ctx = logger.With(ctx, "uid", state.UID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SignIn handles POST /auth/session
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var dto SignInDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if dto.IDToken == "" {
		h.WriteAppError(w, internal.NewValidationFieldError("idToken", "idToken is required", internal.ErrCodeValidationFailed))
		return
	}

	clientID := h.ClientID(r)
	session := h.Manager.Get(clientID)

	if _, err := h.Provider.SignIn(r.Context(), clientID, dto.IDToken); err != nil {
		switch err {
		case identity.ErrTokenExpired:
			h.WriteAppError(w, internal.ErrTokenExpired)
		default:
			h.WriteAppError(w, internal.ErrInvalidToken)
		}
		return
	}

	if err := h.Cookies.RenewToken(r.Context()); err != nil {
		h.Logger.Error("SignIn: failed to renew session token", "error", err)
	}

	h.WriteJSON(w, http.StatusOK, session.State())
}

// GetSession handles GET /session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	clientID := internal.ClientIDFromContext(r.Context())
	if clientID == "" {
		clientID = h.ClientID(r)
	}
	h.WriteJSON(w, http.StatusOK, h.Manager.Get(clientID).State())
}

// Logout handles POST /auth/logout. Sign-out failures are logged and the client is
// sent home regardless.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	clientID := internal.ClientIDFromContext(r.Context())
	if clientID == "" {
		clientID = h.ClientID(r)
	}

	if err := h.Provider.SignOut(r.Context(), clientID); err != nil {
		h.Logger.Error("Logout: sign out failed", "client_id", clientID, "error", err)
	}

	h.WriteJSON(w, http.StatusOK, LogoutResponse{Redirect: "/"})
}
