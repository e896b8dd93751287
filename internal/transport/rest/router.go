package rest

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/frahmantamala/genops/api"
	"github.com/frahmantamala/genops/internal/invoice"
	"github.com/frahmantamala/genops/internal/notification"
	"github.com/frahmantamala/genops/internal/panel"
	"github.com/frahmantamala/genops/internal/role"
	"github.com/frahmantamala/genops/internal/session"
	"github.com/frahmantamala/genops/internal/shop"
	"github.com/frahmantamala/genops/internal/transport/middleware"
	"github.com/frahmantamala/genops/internal/transport/swagger"
	"github.com/frahmantamala/genops/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

const APIPrefix = "/api/v1"

// Handlers groups everything the router mounts. Nil handlers leave their routes out.
type Handlers struct {
	Health       *HealthHandler
	Cookies      *scs.SessionManager
	Session      *session.Handler
	Panel        *panel.Handler
	User         *user.Handler
	Shop         *shop.Handler
	Invoice      *invoice.Handler
	Notification *notification.Handler

	Validator      *middleware.RequestValidator
	AuthLimiter    *middleware.RateLimiter
	AllowedOrigins string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, logger *slog.Logger) {
	adminOnly := middleware.RequireRoles(role.Admin.String())

	// Apply global middleware
	router.Use(middleware.CORS(h.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	router.Route(APIPrefix, func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Session == nil {
			return
		}

		r.Group(func(cr chi.Router) {
			cr.Use(h.Cookies.LoadAndSave)
			cr.Use(h.Session.Attach)
			if h.Validator != nil {
				cr.Use(h.Validator.Middleware)
			}

			cr.Route("/auth", func(ar chi.Router) {
				if h.AuthLimiter != nil {
					ar.Use(h.AuthLimiter.Middleware)
				}
				ar.Post("/session", h.Session.SignIn)
				ar.Post("/logout", h.Session.Logout)
			})
			cr.Get("/session", h.Session.GetSession)

			// Signed-in routes
			cr.Group(func(pr chi.Router) {
				pr.Use(middleware.RequireSignedIn)

				if h.Panel != nil {
					pr.Get("/panel", h.Panel.GetPanel)
					pr.Post("/panel/navigate", h.Panel.Navigate)
				}

				if h.User != nil {
					pr.Get("/users/me", h.User.GetCurrentUser)
					pr.With(adminOnly).Get("/users/operators", h.User.ListOperators)
					pr.With(adminOnly).Get("/users/{uid}", h.User.GetUser)
				}

				if h.Shop != nil {
					pr.Route("/shops", func(sr chi.Router) {
						sr.Get("/", h.Shop.ListShops)
						sr.Get("/{id}", h.Shop.GetShop)

						sr.Group(func(mr chi.Router) {
							mr.Use(adminOnly)
							mr.Post("/", h.Shop.CreateShop)
							mr.Patch("/{id}", h.Shop.UpdateShop)
							mr.Delete("/{id}", h.Shop.DeleteShop)
						})
					})
				}

				// store rules decide who may write invoices
				if h.Invoice != nil {
					pr.Route("/invoices", func(ir chi.Router) {
						ir.Get("/", h.Invoice.ListInvoices)
						ir.Post("/drafts", h.Invoice.OpenDraft)
						ir.Get("/drafts/{draftId}", h.Invoice.GetDraft)
						ir.Patch("/drafts/{draftId}", h.Invoice.UpdateDraft)
						ir.Delete("/drafts/{draftId}", h.Invoice.CloseDraft)
						ir.Post("/drafts/{draftId}/rows", h.Invoice.AddRow)
						ir.Patch("/drafts/{draftId}/rows/{rowId}", h.Invoice.UpdateRow)
						ir.Delete("/drafts/{draftId}/rows/{rowId}", h.Invoice.RemoveRow)
						ir.Post("/drafts/{draftId}/submit", h.Invoice.SubmitDraft)
						ir.Get("/{id}", h.Invoice.GetInvoice)
						ir.Patch("/{id}/status", h.Invoice.UpdateStatus)
					})
				}

				if h.Notification != nil {
					pr.Get("/notifications", h.Notification.ListNotifications)
					pr.Get("/notifications/stream", h.Notification.Stream)
					pr.Patch("/notifications/{id}/read", h.Notification.MarkRead)
				}
			})
		})
	})
}
