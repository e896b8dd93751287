package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/transport"
	"github.com/frahmantamala/genops/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, userID string) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	Watch(ctx context.Context, userID string) (<-chan StreamEvent, error)
}

type ListResponse struct {
	Notifications []*Notification `json:"notifications"`
	Unread        int             `json:"unread"`
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	// KeepAlive is the interval of comment lines sent on an idle stream.
	KeepAlive time.Duration
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		KeepAlive:   25 * time.Second,
	}
}

// ListNotifications handles GET /notifications
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	uid := internal.UserIDFromContext(r.Context())
	items, err := h.Service.List(r.Context(), uid)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{Notifications: items, Unread: unread})
}

// MarkRead handles PATCH /notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	uid := internal.UserIDFromContext(r.Context())
	if err := h.Service.MarkRead(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stream handles GET /notifications/stream. It sends a server-sent "notification" event
// each time one of the caller's notifications is written.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := internal.UserIDFromContext(ctx)
	events, err := h.Service.Watch(ctx, uid)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	rc := http.NewResponseController(w)
	// the server write timeout would cut the stream
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(frame string) bool {
		if _, err := fmt.Fprint(w, frame); err != nil {
			return false
		}
		if err := rc.Flush(); err != nil {
			h.Logger.WarnContext(ctx, "notification stream cannot flush", "error", err)
			return false
		}
		return true
	}

	if !send(": connected\n\n") {
		return
	}

	ticker := time.NewTicker(h.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !send(": keep-alive\n\n") {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.Logger.ErrorContext(ctx, "failed to encode notification event", "error", err)
				continue
			}
			if !send("event: notification\ndata: " + string(data) + "\n\n") {
				return
			}
		}
	}
}
